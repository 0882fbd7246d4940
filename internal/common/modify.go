package common

import "fmt"

// ModifyRequest describes the replacement of a resting order. It does not
// hold the order it replaces, only its id.
type ModifyRequest struct {
	OrderID  OrderID
	Side     Side     `validate:"side"`
	Price    Price    `validate:"price"`
	Quantity Quantity `validate:"gt=0,lte=4294967295"`
	IsMaker  bool
}

func (r ModifyRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("modify order %d: %w", r.OrderID, err)
	}
	return nil
}

// ToOrder builds the replacement order. It starts with its full quantity and
// no time priority.
func (r ModifyRequest) ToOrder(orderType OrderType) *Order {
	order := NewOrder(orderType, r.OrderID, r.Side, r.Price, r.Quantity)
	order.Metadata.IsMaker = r.IsMaker
	return order
}
