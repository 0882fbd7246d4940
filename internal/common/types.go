package common

import "math"

type OrderID uint64

// Price is expressed in integer ticks.
type Price int64

type Quantity uint64

// MaxQuantity bounds a single order. Level totals are summed in 64 bits, so
// a level cannot overflow before it holds 2^32 orders.
const MaxQuantity Quantity = math.MaxUint32

// InvalidPrice marks a Market order that has not been pegged yet.
const InvalidPrice Price = math.MinInt64

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the side a resting counterparty sits on.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

type OrderType int

const (
	// GoodTillCancel orders rest on the book until filled or canceled.
	GoodTillCancel OrderType = iota
	// FillAndKill orders execute what they can immediately. Whatever is
	// left is discarded.
	FillAndKill
	// FillOrKill orders execute their whole quantity immediately or not
	// at all.
	FillOrKill
	// GoodForDay orders behave like GoodTillCancel orders, but are
	// canceled at the end of the trading session.
	GoodForDay
	// Market orders carry no price. They are pegged to the best opposite
	// price on arrival and never rest.
	Market
)

func (t OrderType) Valid() bool {
	return t >= GoodTillCancel && t <= Market
}

// Rests reports whether unfilled quantity of this type is kept on the book.
func (t OrderType) Rests() bool {
	return t == GoodTillCancel || t == GoodForDay
}

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "good_till_cancel"
	case FillAndKill:
		return "fill_and_kill"
	case FillOrKill:
		return "fill_or_kill"
	case GoodForDay:
		return "good_for_day"
	case Market:
		return "market"
	}
	return "unknown"
}
