package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	. "matchbook/internal/common"
	"matchbook/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidOrder   = errors.New("invalid order")
	ErrDuplicateOrder = errors.New("order id already resting")
	ErrNoLiquidity    = errors.New("no opposite liquidity to price market order")
	ErrFillOrKill     = errors.New("fill or kill order cannot be fully filled")
	ErrOrderNotFound  = errors.New("order not found")
)

// Engine is the matching engine for a single instrument. Every operation
// takes one lock over the whole book, so callers always observe a
// consistent book. Logging and metrics happen after the lock is released.
type Engine struct {
	mu   sync.Mutex
	book *OrderBook

	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	cutoff  Cutoff
	expiry  *expiryScheduler
}

// New creates an engine and starts its good for day expiry scheduler. Close
// must be called to stop the scheduler.
func New(opts ...Option) *Engine {
	eng := &Engine{
		book:   NewOrderBook(),
		logger: log.With().Str("component", "engine").Logger(),
		now:    time.Now,
		cutoff: DefaultCutoff(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.expiry = newExpiryScheduler(eng.cutoff, eng.now, eng.ExpireDayOrders, eng.logger)
	eng.expiry.start()
	return eng
}

// Close stops the expiry scheduler and waits for it to exit.
func (eng *Engine) Close() error {
	return eng.expiry.stop()
}

// Submit admits an order, matches it against the opposite side and rests
// whatever its type allows. Trades are returned in match order. A rejected
// order leaves the book untouched. The book works on its own copy of the
// order; the caller's value is never modified, and the resting state is
// read back through Get.
func (eng *Engine) Submit(order *Order) ([]Trade, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	owned := *order
	if err := owned.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		eng.reportSubmit(&owned, nil, err, -1)
		return nil, err
	}

	eng.mu.Lock()
	trades, err := eng.submit(&owned)
	size := eng.book.Size()
	eng.mu.Unlock()

	eng.reportSubmit(&owned, trades, err, size)
	return trades, err
}

// Cancel removes a resting order. Unknown ids, including orders already
// filled or canceled, return ErrOrderNotFound and change nothing.
func (eng *Engine) Cancel(id OrderID) error {
	eng.mu.Lock()
	ok := eng.cancel(id)
	size := eng.book.Size()
	eng.mu.Unlock()

	if !ok {
		eng.logger.Debug().Uint64("order_id", uint64(id)).Msg("cancel of unknown order")
		return fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	eng.metrics.Canceled(metrics.ReasonUser, 1)
	eng.metrics.Resting(size)
	eng.logger.Debug().Uint64("order_id", uint64(id)).Msg("order canceled")
	return nil
}

// Modify replaces a resting order with a new order of the given type. The
// replacement keeps the id but loses its time priority.
func (eng *Engine) Modify(req ModifyRequest, orderType OrderType) ([]Trade, error) {
	return eng.replace(req, func(*Order) OrderType { return orderType })
}

// Amend replaces a resting order keeping its current type.
func (eng *Engine) Amend(req ModifyRequest) ([]Trade, error) {
	return eng.replace(req, func(existing *Order) OrderType { return existing.Type() })
}

func (eng *Engine) replace(req ModifyRequest, typeOf func(*Order) OrderType) ([]Trade, error) {
	if err := req.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		eng.metrics.Rejected(rejectReason(err))
		return nil, err
	}

	eng.mu.Lock()
	existing, ok := eng.book.get(req.OrderID)
	if !ok {
		eng.mu.Unlock()
		eng.logger.Debug().Uint64("order_id", uint64(req.OrderID)).Msg("modify of unknown order")
		return nil, fmt.Errorf("order %d: %w", req.OrderID, ErrOrderNotFound)
	}
	order := req.ToOrder(typeOf(existing))
	if err := order.Validate(); err != nil {
		eng.mu.Unlock()
		err = fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		eng.metrics.Rejected(rejectReason(err))
		return nil, err
	}
	eng.cancel(req.OrderID)
	trades, err := eng.submit(order)
	size := eng.book.Size()
	eng.mu.Unlock()

	eng.metrics.Canceled(metrics.ReasonModify, 1)
	eng.reportSubmit(order, trades, err, size)
	return trades, err
}

// Depth returns the aggregated quantity per price level on both sides.
func (eng *Engine) Depth() Depth {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.book.Depth()
}

// Size returns the number of resting orders.
func (eng *Engine) Size() int {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.book.Size()
}

// Get returns a copy of a resting order.
func (eng *Engine) Get(id OrderID) (Order, bool) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	order, ok := eng.book.get(id)
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// Levels lists the resting order ids per level on one side, in priority
// order.
func (eng *Engine) Levels(side Side) []FlatPriceLevel {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.book.Levels(side)
}

// ExpireDayOrders cancels every resting good for day order in a single
// pass and returns how many were removed.
func (eng *Engine) ExpireDayOrders() int {
	eng.mu.Lock()
	canceled := 0
	for _, id := range eng.book.ordersOfType(GoodForDay) {
		if eng.cancel(id) {
			canceled++
		}
	}
	size := eng.book.Size()
	eng.mu.Unlock()

	eng.metrics.Canceled(metrics.ReasonExpiry, canceled)
	eng.metrics.Resting(size)
	eng.logger.Info().Int("canceled", canceled).Msg("good for day orders expired")
	return canceled
}

// ---- Locked helpers ----

func (eng *Engine) cancel(id OrderID) bool {
	_, ok := eng.book.remove(id)
	return ok
}

func (eng *Engine) submit(order *Order) ([]Trade, error) {
	if eng.book.contains(order.ID()) {
		return nil, fmt.Errorf("order %d: %w", order.ID(), ErrDuplicateOrder)
	}

	switch order.Type() {
	case Market:
		// Market orders take the best opposite price and are then matched
		// like a limit order at that price.
		best, ok := eng.book.best(order.Side().Opposite())
		if !ok {
			return nil, fmt.Errorf("order %d: %w", order.ID(), ErrNoLiquidity)
		}
		if err := order.Peg(best.Price()); err != nil {
			return nil, err
		}
	case FillOrKill:
		if !eng.book.canFullyFill(order.Side(), order.Price(), order.RemainingQuantity()) {
			return nil, fmt.Errorf("order %d: %w", order.ID(), ErrFillOrKill)
		}
	}

	trades := eng.match(order)

	// Only good till cancel and good for day orders rest. Fill and kill and
	// market remainders are dropped; fill or kill has none.
	if order.Type().Rests() && !order.IsFilled() {
		eng.book.insert(order)
	}
	return trades, nil
}

// match consumes the opposite side while it crosses the incoming order, in
// price-time priority. The incoming order is the taker; each trade prints at
// the resting order's price.
func (eng *Engine) match(order *Order) []Trade {
	var trades []Trade
	opposite := order.Side().Opposite()
	for !order.IsFilled() {
		level, ok := eng.book.best(opposite)
		if !ok || !crosses(order.Side(), order.Price(), level.Price()) {
			break
		}

		resting := level.front()
		maker := resting.order
		quantity := min(order.RemainingQuantity(), maker.RemainingQuantity())

		if err := order.Fill(quantity); err != nil {
			panic(fmt.Errorf("%w: %w", ErrInvariant, err))
		}
		eng.book.fill(resting, quantity)
		trades = append(trades, NewTrade(order, maker, quantity, eng.now()))
	}
	return trades
}

// ---- Reporting ----

func (eng *Engine) reportSubmit(order *Order, trades []Trade, err error, size int) {
	eng.metrics.Submitted(order.Type().String())
	if err != nil {
		eng.metrics.Rejected(rejectReason(err))
		eng.logger.Debug().
			Err(err).
			Uint64("order_id", uint64(order.ID())).
			Str("side", order.Side().String()).
			Str("type", order.Type().String()).
			Msg("order rejected")
		return
	}

	var traded Quantity
	for _, trade := range trades {
		traded += trade.Bid.Quantity
	}
	eng.metrics.Traded(len(trades), uint64(traded))
	eng.metrics.Resting(size)

	eng.logger.Debug().
		Uint64("order_id", uint64(order.ID())).
		Str("side", order.Side().String()).
		Str("type", order.Type().String()).
		Int64("price", int64(order.Price())).
		Uint64("qty", uint64(order.InitialQuantity())).
		Uint64("filled", uint64(order.FilledQuantity())).
		Int("trades", len(trades)).
		Msg("order processed")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOrder):
		return "invalid"
	case errors.Is(err, ErrDuplicateOrder):
		return "duplicate"
	case errors.Is(err, ErrNoLiquidity):
		return "no_liquidity"
	case errors.Is(err, ErrFillOrKill):
		return "fill_or_kill"
	}
	return "other"
}
