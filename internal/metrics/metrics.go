package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "matchbook"

// Cancel reasons.
const (
	ReasonUser   = "user"
	ReasonModify = "modify"
	ReasonExpiry = "expiry"
)

// Metrics holds the engine's collectors. A nil *Metrics records nothing, so
// the engine can run without a registry.
type Metrics struct {
	OrdersSubmitted *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	OrdersCanceled  *prometheus.CounterVec
	Trades          prometheus.Counter
	TradedQuantity  prometheus.Counter
	RestingOrders   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		OrdersSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_submitted_total",
				Help:      "Total number of orders submitted to the engine",
			},
			[]string{"type"},
		),
		OrdersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_rejected_total",
				Help:      "Total number of orders rejected on admission",
			},
			[]string{"reason"},
		),
		OrdersCanceled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_canceled_total",
				Help:      "Total number of resting orders canceled",
			},
			[]string{"reason"},
		),
		Trades: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of trades executed",
			},
		),
		TradedQuantity: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "traded_quantity_total",
				Help:      "Total quantity executed across all trades",
			},
		),
		RestingOrders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resting_orders",
				Help:      "Current number of orders resting on the book",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.OrdersSubmitted,
		m.OrdersRejected,
		m.OrdersCanceled,
		m.Trades,
		m.TradedQuantity,
		m.RestingOrders,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Submitted(orderType string) {
	if m == nil {
		return
	}
	m.OrdersSubmitted.WithLabelValues(orderType).Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Canceled(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.OrdersCanceled.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) Traded(trades int, quantity uint64) {
	if m == nil || trades == 0 {
		return
	}
	m.Trades.Add(float64(trades))
	m.TradedQuantity.Add(float64(quantity))
}

func (m *Metrics) Resting(n int) {
	if m == nil {
		return
	}
	m.RestingOrders.Set(float64(n))
}
