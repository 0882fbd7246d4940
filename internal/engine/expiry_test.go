package engine

import (
	"sync/atomic"
	"testing"
	"time"

	. "matchbook/internal/common"
	"matchbook/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestCutoff_Next(t *testing.T) {
	cutoff := Cutoff{Hour: 16, Location: time.UTC}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before cutoff",
			time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
			time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC),
		},
		{
			"at cutoff",
			time.Date(2026, 10, 15, 16, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 16, 16, 0, 0, 0, time.UTC),
		},
		{
			"after cutoff",
			time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 16, 16, 0, 0, 0, time.UTC),
		},
		{
			"month end",
			time.Date(2026, 10, 31, 17, 0, 0, 0, time.UTC),
			time.Date(2026, 11, 1, 16, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(cutoff.Next(tt.now)), "got %v", cutoff.Next(tt.now))
		})
	}
}

func TestCutoff_Next_Location(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	cutoff := Cutoff{Hour: 16, Minute: 30, Location: est}

	// 20:00 UTC is 15:00 EST, so the cutoff is later the same day.
	next := cutoff.Next(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC))
	assert.True(t, next.Equal(time.Date(2026, 10, 15, 21, 30, 0, 0, time.UTC)), "got %v", next)

	next = Cutoff{Hour: 16}.Next(time.Now())
	assert.Equal(t, time.Local, next.Location())
}

func TestExpireDayOrders(t *testing.T) {
	eng := createTestEngine(t)
	_, err := eng.Submit(NewOrder(GoodTillCancel, 1, Buy, 10, 5))
	require.NoError(t, err)
	_, err = eng.Submit(NewOrder(GoodForDay, 2, Sell, 20, 5))
	require.NoError(t, err)
	_, err = eng.Submit(NewOrder(GoodForDay, 3, Buy, 9, 5))
	require.NoError(t, err)
	require.Equal(t, 3, eng.Size())

	assert.Equal(t, 2, eng.ExpireDayOrders())
	depth := eng.Depth()
	assert.Empty(t, depth.Asks)
	assert.Equal(t, []LevelInfo{{10, 5}}, depth.Bids)
	assert.Equal(t, 1, eng.Size())

	// Nothing left to expire.
	assert.Equal(t, 0, eng.ExpireDayOrders())
	checkBook(t, eng.book)
}

func TestExpiryScheduler_FiresAtCutoff(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	// The clock is pinned just before the cutoff, so the first wait is 200ms.
	eng := createTestEngine(t,
		WithClock(fixedClock(time.Date(2026, 10, 15, 15, 59, 59, 800_000_000, time.UTC))),
		WithCutoff(Cutoff{Hour: 16, Location: time.UTC}),
		WithMetrics(m),
	)

	_, err = eng.Submit(NewOrder(GoodForDay, 1, Sell, 20, 5))
	require.NoError(t, err)
	_, err = eng.Submit(NewOrder(GoodTillCancel, 2, Sell, 21, 5))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return eng.Size() == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := eng.Get(1)
	assert.False(t, ok)
	_, ok = eng.Get(2)
	assert.True(t, ok)
	assert.Equal(t, []LevelInfo{{21, 5}}, eng.Depth().Asks)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCanceled.WithLabelValues(metrics.ReasonExpiry)))
}

func TestExpiryScheduler_StopsEarly(t *testing.T) {
	// An hour until the cutoff.
	eng := createTestEngine(t,
		WithClock(fixedClock(time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC))),
		WithCutoff(Cutoff{Hour: 16, Location: time.UTC}),
	)
	_, err := eng.Submit(NewOrder(GoodForDay, 1, Sell, 20, 5))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- eng.Close() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}

	// Shutdown skips the expiry pass.
	assert.Equal(t, 1, eng.Size())
	// Closing again is harmless.
	assert.NoError(t, eng.Close())
}

func TestExpiryScheduler_NoPassAfterStop(t *testing.T) {
	var passes atomic.Int32
	s := newExpiryScheduler(
		Cutoff{Hour: 16, Location: time.UTC},
		fixedClock(time.Date(2026, 10, 15, 15, 59, 0, 0, time.UTC)),
		func() int { passes.Add(1); return 0 },
		zerolog.Nop(),
	)
	s.start()
	require.NoError(t, s.stop())
	assert.Equal(t, int32(0), passes.Load())
}

func TestExpiryScheduler_OnePassPerCutoff(t *testing.T) {
	var passes atomic.Int32
	// A clock that never advances past the cutoff behaves like a wall clock
	// stepped back after each pass.
	s := newExpiryScheduler(
		Cutoff{Hour: 16, Location: time.UTC},
		fixedClock(time.Date(2026, 10, 15, 15, 59, 59, 900_000_000, time.UTC)),
		func() int { passes.Add(1); return 0 },
		zerolog.Nop(),
	)
	s.start()
	t.Cleanup(func() { assert.NoError(t, s.stop()) })

	require.Eventually(t, func() bool {
		return passes.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		return passes.Load() > 1
	}, 500*time.Millisecond, 10*time.Millisecond)
}
