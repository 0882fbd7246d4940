package engine

import (
	"time"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

// Cutoff is the time of day at which the trading session ends and good for
// day orders are canceled.
type Cutoff struct {
	Hour     int
	Minute   int
	Location *time.Location // time.Local when nil
}

// DefaultCutoff is 16:00 local time.
func DefaultCutoff() Cutoff {
	return Cutoff{Hour: 16, Location: time.Local}
}

// Next returns the first cutoff strictly after now.
func (c Cutoff) Next(now time.Time) time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, loc)
	if !next.After(now) {
		// time.Date normalises the day overflow and keeps the wall clock
		// across DST changes.
		next = time.Date(now.Year(), now.Month(), now.Day()+1, c.Hour, c.Minute, 0, 0, loc)
	}
	return next
}

// expiryScheduler sleeps until each cutoff and then runs the expiry pass.
// It holds no lock while waiting.
type expiryScheduler struct {
	t      tomb.Tomb
	cutoff Cutoff
	now    func() time.Time
	expire func() int
	logger zerolog.Logger
}

func newExpiryScheduler(cutoff Cutoff, now func() time.Time, expire func() int, logger zerolog.Logger) *expiryScheduler {
	return &expiryScheduler{
		cutoff: cutoff,
		now:    now,
		expire: expire,
		logger: logger,
	}
}

func (s *expiryScheduler) start() {
	s.t.Go(s.run)
}

// stop signals the scheduler and waits for its goroutine to exit.
func (s *expiryScheduler) stop() error {
	s.t.Kill(nil)
	return s.t.Wait()
}

func (s *expiryScheduler) run() error {
	// Cutoff of the last pass. Scheduling from it as well as from now keeps
	// a wall clock stepped backwards from firing the same cutoff twice.
	var last time.Time
	for {
		now := s.now()
		from := now
		if from.Before(last) {
			from = last
		}
		next := s.cutoff.Next(from)
		timer := time.NewTimer(next.Sub(now))
		s.logger.Debug().Time("next_cutoff", next).Msg("expiry scheduled")

		select {
		case <-s.t.Dying():
			timer.Stop()
			s.logger.Info().Msg("expiry scheduler stopped")
			return nil
		case <-timer.C:
		}

		// A shutdown racing the timer wins; the pass is skipped.
		if !s.t.Alive() {
			s.logger.Info().Msg("expiry scheduler stopped")
			return nil
		}
		s.expire()
		last = next
	}
}
