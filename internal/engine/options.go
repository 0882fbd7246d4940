package engine

import (
	"time"

	"matchbook/internal/metrics"

	"github.com/rs/zerolog"
)

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = logger
	}
}

// WithMetrics records engine activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(eng *Engine) {
		eng.metrics = m
	}
}

// WithCutoff sets the time of day at which good for day orders expire.
func WithCutoff(cutoff Cutoff) Option {
	return func(eng *Engine) {
		eng.cutoff = cutoff
	}
}

// WithClock replaces time.Now for trade timestamps and expiry scheduling.
func WithClock(now func() time.Time) Option {
	return func(eng *Engine) {
		eng.now = now
	}
}
