package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeInfo is one leg of a trade.
type TradeInfo struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
	Metadata Metadata
}

// Trade accounts for the two orders which matched. Both legs print at the
// resting order's price for the same quantity.
type Trade struct {
	ID        uuid.UUID
	Bid       TradeInfo
	Ask       TradeInfo
	Aggressor Side // Side of the incoming order
	Timestamp time.Time
}

// NewTrade records a match between an incoming order and the resting order
// it crossed.
func NewTrade(taker, maker *Order, quantity Quantity, at time.Time) Trade {
	price := maker.Price()
	takerLeg := TradeInfo{OrderID: taker.ID(), Price: price, Quantity: quantity, Metadata: taker.Metadata}
	makerLeg := TradeInfo{OrderID: maker.ID(), Price: price, Quantity: quantity, Metadata: maker.Metadata}

	trade := Trade{
		ID:        uuid.New(),
		Aggressor: taker.Side(),
		Timestamp: at,
	}
	if taker.Side() == Buy {
		trade.Bid, trade.Ask = takerLeg, makerLeg
	} else {
		trade.Bid, trade.Ask = makerLeg, takerLeg
	}
	return trade
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`ID:        %s
Bid:       %d
Ask:       %d
Aggressor: %v
Timestamp: %v
Quantity:  %d
Price:     %d`,
		t.ID,
		t.Bid.OrderID,
		t.Ask.OrderID,
		t.Aggressor,
		t.Timestamp.Format(time.RFC3339),
		t.Bid.Quantity,
		t.Bid.Price,
	)
}
