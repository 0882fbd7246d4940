package engine

import . "matchbook/internal/common"

// restingOrder is a node in a price level's queue. The registry owns the
// nodes; levels only link them together.
type restingOrder struct {
	order *Order
	level *PriceLevel
	prev  *restingOrder
	next  *restingOrder
}

// PriceLevel holds the orders resting at a single price, oldest first.
type PriceLevel struct {
	price      Price
	head       *restingOrder
	tail       *restingOrder
	quantity   Quantity // Remaining quantity across all orders at this price
	orderCount int
}

func (l *PriceLevel) Price() Price       { return l.price }
func (l *PriceLevel) Quantity() Quantity { return l.quantity }
func (l *PriceLevel) Len() int           { return l.orderCount }
func (l *PriceLevel) empty() bool        { return l.head == nil }

// front returns the order with the highest time priority.
func (l *PriceLevel) front() *restingOrder {
	return l.head
}

func (l *PriceLevel) pushBack(node *restingOrder) {
	node.level = l
	node.prev = l.tail
	node.next = nil
	if l.tail == nil {
		l.head = node
	} else {
		l.tail.next = node
	}
	l.tail = node
	l.quantity += node.order.RemainingQuantity()
	l.orderCount++
}

func (l *PriceLevel) unlink(node *restingOrder) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	l.quantity -= node.order.RemainingQuantity()
	l.orderCount--
	node.prev, node.next, node.level = nil, nil, nil
}

// filled keeps the level total in step with a fill on one of its orders.
func (l *PriceLevel) filled(quantity Quantity) {
	l.quantity -= quantity
}

func (l *PriceLevel) each(visit func(*Order) bool) {
	for n := l.head; n != nil; n = n.next {
		if !visit(n.order) {
			return
		}
	}
}
