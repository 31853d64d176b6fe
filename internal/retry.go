package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/samber/lo"

	"r3e-sheets/internal/log"
)

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrLeaderboardEmpty = errors.New("leaderboard not populated yet")
	ErrDriverNotIndexed = errors.New("driver not indexed yet")
)

// Retry calls op until it succeeds, returns an error retriable rejects, or
// maxAttempts calls have been made. Attempts are separated by delay.
func Retry[T any](
	ctx context.Context,
	op func(context.Context) (T, error),
	maxAttempts int,
	delay time.Duration,
	retriable func(error) bool,
) (T, error) {
	attempts := 0
	permanent := false
	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := op(ctx)
		if err != nil && !retriable(err) {
			permanent = true
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(max(maxAttempts, 1))),
		backoff.WithMaxElapsedTime(0),
	)
	switch {
	case err == nil:
		return res, nil
	case permanent:
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			return res, pe.Unwrap()
		}
		return res, err
	case ctx.Err() != nil:
		return res, ctx.Err()
	}
	return res, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, err)
}

// Combo is one car/track pair with display names for diagnostics
type Combo struct {
	Car     CarID
	CarName string
	Track   TrackConfig
}

// ExhaustedError is the fatal error raised when the error budget is spent
type ExhaustedError struct {
	Car      string
	Track    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("too many errors while getting the data | car = %s | track = %s: %v",
		e.Car, e.Track, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Fetcher is the leaderboard source polled by the Poller
type Fetcher interface {
	FetchLeaderboard(ctx context.Context, layoutID int, car CarID) ([]LeaderboardEntry, time.Duration, error)
}

// Poller repeatedly queries a leaderboard until the target drivers are found,
// the answer is accepted as final, or the error budget is exhausted.
type Poller struct {
	fetcher       Fetcher
	drivers       []string
	finished      []CarID
	excludedTrack int
	maxErrors     int
	sleep         time.Duration
	l             *log.Logger
}

// NewPoller creates a poller from the run configuration
func NewPoller(fetcher Fetcher, cfg Config) *Poller {
	return &Poller{
		fetcher:       fetcher,
		drivers:       cfg.Drivers,
		finished:      cfg.FinishedCars,
		excludedTrack: cfg.ExcludedTrackID,
		maxErrors:     cfg.Retry.MaxErrors,
		sleep:         cfg.Retry.Sleep,
		l:             log.Default().Named("poller"),
	}
}

// IsFinished reports whether absence from a car's leaderboard means
// "not indexed yet" rather than "never driven"
func (p *Poller) IsFinished(car CarID) bool {
	return lo.Contains(p.finished, car)
}

// Poll returns the leaderboard result for a combo. The error counter is
// shared by fetch failures, empty leaderboards and missing drivers; it may
// reach maxErrors before the run fails.
func (p *Poller) Poll(ctx context.Context, combo Combo) (LeaderboardResult, error) {
	attempts := 0
	res, err := Retry(ctx, func(ctx context.Context) (LeaderboardResult, error) {
		attempts++
		return p.pollOnce(ctx, combo)
	}, p.maxErrors+1, p.sleep, isTransient)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, ErrRetriesExhausted) {
		return LeaderboardResult{}, &ExhaustedError{
			Car:      combo.CarName,
			Track:    combo.Track.Name,
			Attempts: attempts,
			Err:      err,
		}
	}
	return LeaderboardResult{}, fmt.Errorf("%s / %s: %w", combo.CarName, combo.Track.Name, err)
}

func (p *Poller) pollOnce(ctx context.Context, combo Combo) (LeaderboardResult, error) {
	entries, duration, err := p.fetcher.FetchLeaderboard(ctx, combo.Track.LayoutID, combo.Car)
	if err != nil {
		p.l.Debug("fetch failed",
			log.String("car", combo.CarName),
			log.String("track", combo.Track.Name),
			log.ErrorField(err))
		return LeaderboardResult{}, err
	}
	p.l.Debug("leaderboard fetched",
		log.String("car", combo.CarName),
		log.String("track", combo.Track.Name),
		log.Int("entries", len(entries)),
		log.Duration("duration", duration))

	if len(entries) == 0 {
		if combo.Track.LayoutID == p.excludedTrack || !p.IsFinished(combo.Car) {
			return LeaderboardResult{Drivers: map[string]DriverResult{}}, nil
		}
		return LeaderboardResult{}, ErrLeaderboardEmpty
	}

	res, err := ExtractResults(entries, p.drivers)
	if err != nil {
		return LeaderboardResult{}, err
	}
	if len(res.Drivers) == 0 && p.IsFinished(combo.Car) {
		return LeaderboardResult{}, ErrDriverNotIndexed
	}
	return res, nil
}

// isTransient classifies errors the poller retries
func isTransient(err error) bool {
	var fe *FetchError
	var ue *url.Error
	switch {
	case errors.As(err, &fe):
		return true
	case errors.Is(err, ErrLeaderboardEmpty), errors.Is(err, ErrDriverNotIndexed):
		return true
	case errors.As(err, &ue):
		// transport failures, client timeouts included
		return true
	}
	return false
}
