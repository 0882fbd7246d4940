package engine

import (
	"errors"
	"fmt"

	. "matchbook/internal/common"

	"github.com/tidwall/btree"
)

var (
	// ErrInvariant marks an internal inconsistency between the registry
	// and the price levels. It is only ever raised through a panic.
	ErrInvariant = errors.New("order book invariant violated")
)

type PriceLevels = btree.BTreeG[*PriceLevel]

// LevelInfo is the aggregated quantity resting at one price.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// Depth is a snapshot of both sides of the book, best price first.
type Depth struct {
	Bids []LevelInfo
	Asks []LevelInfo
}

// FlatPriceLevel lists the orders at one price in priority order.
type FlatPriceLevel struct {
	PriceLevel Price
	Orders     []OrderID
}

// OrderBook is the two-sided price level index plus the registry of
// resting orders. It is not safe for concurrent use; the Engine serialises
// access to it.
type OrderBook struct {
	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd. Min is always the best price.
	bids *PriceLevels
	asks *PriceLevels

	// Every resting order by id. An id is present here if and only if
	// the order is queued in exactly one level.
	orders map[OrderID]*restingOrder
}

func NewOrderBook() *OrderBook {
	// The engine lock guards the trees, so their internal locking is
	// switched off.
	opts := btree.Options{NoLocks: true}

	// Sorted greatest first.
	bids := btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.price > b.price
	}, opts)
	// Sorted least first.
	asks := btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.price < b.price
	}, opts)
	return &OrderBook{
		bids:   bids,
		asks:   asks,
		orders: make(map[OrderID]*restingOrder),
	}
}

func (book *OrderBook) levels(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// Size is the number of resting orders.
func (book *OrderBook) Size() int {
	return len(book.orders)
}

func (book *OrderBook) contains(id OrderID) bool {
	_, ok := book.orders[id]
	return ok
}

func (book *OrderBook) get(id OrderID) (*Order, bool) {
	node, ok := book.orders[id]
	if !ok {
		return nil, false
	}
	return node.order, true
}

// BestBid returns the highest bid level, if any.
func (book *OrderBook) BestBid() (*PriceLevel, bool) {
	return book.bids.Min()
}

// BestAsk returns the lowest ask level, if any.
func (book *OrderBook) BestAsk() (*PriceLevel, bool) {
	return book.asks.Min()
}

func (book *OrderBook) best(side Side) (*PriceLevel, bool) {
	return book.levels(side).Min()
}

// insert queues the order at the tail of its price level, creating the
// level if needed.
func (book *OrderBook) insert(order *Order) {
	if book.contains(order.ID()) {
		panic(fmt.Errorf("%w: order %d inserted twice", ErrInvariant, order.ID()))
	}

	levels := book.levels(order.Side())
	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.Get(&PriceLevel{price: order.Price()})
	if !ok {
		level = &PriceLevel{price: order.Price()}
		levels.Set(level)
	}

	node := &restingOrder{order: order}
	level.pushBack(node)
	book.orders[order.ID()] = node
}

// remove takes the order out of its level and the registry, dropping the
// level once it is empty.
func (book *OrderBook) remove(id OrderID) (*Order, bool) {
	node, ok := book.orders[id]
	if !ok {
		return nil, false
	}

	level := node.level
	if level == nil {
		panic(fmt.Errorf("%w: order %d registered without a level", ErrInvariant, id))
	}
	levels := book.levels(node.order.Side())
	if current, ok := levels.Get(level); !ok || current != level {
		panic(fmt.Errorf("%w: level %d of order %d is not indexed", ErrInvariant, level.price, id))
	}

	level.unlink(node)
	delete(book.orders, id)
	if level.empty() {
		levels.Delete(level)
	}
	return node.order, true
}

// fill applies a match to a resting order and removes it once it is fully
// filled. The caller guarantees quantity fits, so an overfill here means
// the book is corrupt.
func (book *OrderBook) fill(node *restingOrder, quantity Quantity) {
	if err := node.order.Fill(quantity); err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvariant, err))
	}
	node.level.filled(quantity)
	if node.order.IsFilled() {
		book.remove(node.order.ID())
	}
}

// canFullyFill walks the levels opposite to side in priority order and
// reports whether quantity can be filled at prices crossing limit.
func (book *OrderBook) canFullyFill(side Side, limit Price, quantity Quantity) bool {
	var available Quantity
	book.levels(side.Opposite()).Scan(func(level *PriceLevel) bool {
		if !crosses(side, limit, level.price) {
			return false
		}
		available += level.quantity
		return available < quantity
	})
	return available >= quantity
}

// crosses reports whether an order on side at limit can trade against a
// resting order priced at resting.
func crosses(side Side, limit, resting Price) bool {
	if side == Buy {
		return limit >= resting
	}
	return limit <= resting
}

// Depth aggregates each level, bids descending and asks ascending.
func (book *OrderBook) Depth() Depth {
	return Depth{
		Bids: aggregate(book.bids),
		Asks: aggregate(book.asks),
	}
}

func aggregate(levels *PriceLevels) []LevelInfo {
	infos := make([]LevelInfo, 0, levels.Len())
	levels.Scan(func(level *PriceLevel) bool {
		infos = append(infos, LevelInfo{Price: level.price, Quantity: level.quantity})
		return true
	})
	return infos
}

// Levels flattens one side of the book into order ids per level.
func (book *OrderBook) Levels(side Side) []FlatPriceLevel {
	levels := book.levels(side)
	flat := make([]FlatPriceLevel, 0, levels.Len())
	levels.Scan(func(level *PriceLevel) bool {
		ids := make([]OrderID, 0, level.Len())
		level.each(func(order *Order) bool {
			ids = append(ids, order.ID())
			return true
		})
		flat = append(flat, FlatPriceLevel{PriceLevel: level.price, Orders: ids})
		return true
	})
	return flat
}

// ordersOfType collects the ids of resting orders with the given type.
func (book *OrderBook) ordersOfType(orderType OrderType) []OrderID {
	var ids []OrderID
	for id, node := range book.orders {
		if node.order.Type() == orderType {
			ids = append(ids, id)
		}
	}
	return ids
}
