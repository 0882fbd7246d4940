package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOverfill          = errors.New("fill exceeds remaining quantity")
	ErrRepriceNotAllowed = errors.New("only market orders can be re-priced")
)

// Metadata is carried alongside an order for billing and audit
// collaborators. The engine never reads it.
type Metadata struct {
	IsMaker           bool
	UserID            uint64
	MarketID          uint64
	CompetitorsID     uint64
	TotalValue        decimal.Decimal
	TransactionFee    decimal.Decimal
	MatchedQuantity   Quantity
	Expiration        time.Time
	IsSystemGenerated bool
	OriginalOrderID   OrderID // Order this one was derived from, if any
	TransactionHash   string
}

// Order is a single buy or sell instruction. Identity, side and initial
// quantity never change once created; only fills move the remaining
// quantity.
type Order struct {
	id                OrderID
	orderType         OrderType
	side              Side
	price             Price
	initialQuantity   Quantity
	remainingQuantity Quantity

	Metadata Metadata
}

func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) *Order {
	return &Order{
		id:                id,
		orderType:         orderType,
		side:              side,
		price:             price,
		initialQuantity:   quantity,
		remainingQuantity: quantity,
	}
}

// NewMarketOrder creates an unpriced market order. It is pegged to the best
// opposite price when it reaches the book.
func NewMarketOrder(id OrderID, side Side, quantity Quantity) *Order {
	return NewOrder(Market, id, side, InvalidPrice, quantity)
}

// WithMetadata attaches pass-through metadata and returns the order for
// chaining.
func (o *Order) WithMetadata(md Metadata) *Order {
	o.Metadata = md
	return o
}

func (o *Order) ID() OrderID                 { return o.id }
func (o *Order) Type() OrderType             { return o.orderType }
func (o *Order) Side() Side                  { return o.side }
func (o *Order) Price() Price                { return o.price }
func (o *Order) InitialQuantity() Quantity   { return o.initialQuantity }
func (o *Order) RemainingQuantity() Quantity { return o.remainingQuantity }
func (o *Order) FilledQuantity() Quantity    { return o.initialQuantity - o.remainingQuantity }
func (o *Order) IsFilled() bool              { return o.remainingQuantity == 0 }

// Fill consumes quantity from the order. Filling past the remaining
// quantity is rejected rather than clamped.
func (o *Order) Fill(quantity Quantity) error {
	if quantity > o.remainingQuantity {
		return fmt.Errorf("order %d: fill of %d with %d remaining: %w",
			o.id, quantity, o.remainingQuantity, ErrOverfill)
	}
	o.remainingQuantity -= quantity
	o.Metadata.MatchedQuantity += quantity
	return nil
}

// Peg resolves the price of a market order.
func (o *Order) Peg(price Price) error {
	if o.orderType != Market {
		return fmt.Errorf("order %d (%s): %w", o.id, o.orderType, ErrRepriceNotAllowed)
	}
	o.price = price
	return nil
}

// Validate checks the order can be admitted to a book: it must be fresh,
// its quantity must lie in (0, MaxQuantity], and only market orders may be
// unpriced.
func (o *Order) Validate() error {
	if err := validate.Var(o.initialQuantity, "gt=0,lte=4294967295"); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	if o.remainingQuantity != o.initialQuantity {
		return fmt.Errorf("order %d already has %d filled", o.id, o.FilledQuantity())
	}
	if err := validate.Var(o.side, "side"); err != nil {
		return fmt.Errorf("side: %w", err)
	}
	if err := validate.Var(o.orderType, "ordertype"); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	if o.orderType != Market {
		if err := validate.Var(o.price, "price"); err != nil {
			return fmt.Errorf("price: %w", err)
		}
	}
	return nil
}

func (o *Order) String() string {
	price := "unpriced"
	if o.price != InvalidPrice {
		price = fmt.Sprintf("%d", o.price)
	}
	return fmt.Sprintf(
		`ID:        %d
Type:      %v
Side:      %v
Price:     %s
Quantity:  %d (Total: %d)
User:      %d`,
		o.id,
		o.orderType,
		o.side,
		price,
		o.remainingQuantity,
		o.initialQuantity,
		o.Metadata.UserID,
	)
}
