package internal

import (
	"context"
	"time"

	"r3e-sheets/internal/log"
)

// Scheduler runs passes back to back, separated by a fixed interval or cut
// short by a trigger
type Scheduler struct {
	interval time.Duration
	triggers <-chan []CarID
	l        *log.Logger
}

// NewScheduler creates a scheduler; triggers may be nil
func NewScheduler(interval time.Duration, triggers <-chan []CarID) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		interval: interval,
		triggers: triggers,
		l:        log.Default().Named("scheduler"),
	}
}

// Run calls pass immediately, then after every interval or trigger, until the
// context is done or pass fails. An empty car list means all configured cars.
// Passes never overlap: pass runs on the calling goroutine.
func (s *Scheduler) Run(ctx context.Context, pass func(ctx context.Context, cars []CarID) error) error {
	var cars []CarID
	for {
		if err := pass(ctx, cars); err != nil {
			return err
		}
		cars = nil

		next := time.Now().Add(s.interval)
		s.l.Info("Next pass scheduled",
			log.Duration("in", s.interval.Round(time.Second)),
			log.String("at", next.Format("2006-01-02 15:04")))

		timer := time.NewTimer(s.interval)
		select {
		case <-timer.C:
			s.l.Info("Scheduled pass triggered")
		case ids := <-s.triggers:
			timer.Stop()
			cars = ids
			s.l.Info("Manual pass triggered", log.Int("cars", len(ids)))
		case <-ctx.Done():
			timer.Stop()
			s.l.Info("Scheduler stopped")
			return ctx.Err()
		}
	}
}
