package main

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"r3e-sheets/internal"
	"r3e-sheets/internal/log"
)

// lastUpdateLayout is how the completion time of a pass is written to the sheet
const lastUpdateLayout = "02/01/2006 15:04:05"

// Orchestrator runs passes over the configured cars: every track of a car is
// polled in name order and the results are written to the car's sheet.
type Orchestrator struct {
	cfg       internal.Config
	gameData  *internal.GameData
	tracks    []internal.TrackConfig
	poller    *internal.Poller
	writer    internal.SheetWriter
	limiter   *rate.Limiter
	layout    internal.SheetLayout
	recLayout internal.SheetLayout
	tracker   *internal.FetchTracker
	l         *log.Logger
}

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(
	cfg internal.Config,
	gameData *internal.GameData,
	fetcher internal.Fetcher,
	writer internal.SheetWriter,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		gameData: gameData,
		tracks:   gameData.GetTracks(),
		poller:   internal.NewPoller(fetcher, cfg),
		writer:   writer,
		limiter:  internal.NewWriteLimiter(cfg.Sheet.WritePause),
		layout: internal.NewSheetLayout(cfg.Drivers,
			len(internal.Header), cfg.Sheet.BlockGap),
		recLayout: internal.NewSheetLayout(cfg.Drivers,
			len(internal.RecommendationHeader), cfg.Sheet.BlockGap),
		tracker: internal.NewFetchTracker(),
		l:       log.Default().Named("orchestrator"),
	}
}

// Tracker exposes the pass timestamps of the orchestrator
func (o *Orchestrator) Tracker() *internal.FetchTracker {
	return o.tracker
}

// SaveCar writes the results of every track for one car into the sheet named
// after the car, then emits the recommended track of each driver.
func (o *Orchestrator) SaveCar(ctx context.Context, car internal.CarID) error {
	carName, err := o.gameData.CarName(car)
	if err != nil {
		return err
	}
	o.l.Info("Processing car", log.String("car", carName), log.Int("tracks", len(o.tracks)))

	sheet := internal.NewCarSheet(o.writer, o.limiter, o.layout, carName)
	if err := sheet.WriteHeader(ctx); err != nil {
		return fmt.Errorf("%s: %w", carName, err)
	}
	rec := internal.NewRecommender(o.cfg.MinParticipants, o.cfg.ExcludedTrackID)

	for _, track := range o.tracks {
		res, err := o.poller.Poll(ctx, internal.Combo{Car: car, CarName: carName, Track: track})
		if err != nil {
			return err
		}
		written, err := sheet.WriteTrack(ctx, track, res)
		if err != nil {
			return fmt.Errorf("%s / %s: %w", carName, track.Name, err)
		}
		for _, driver := range written {
			o.l.Info("Track saved",
				log.String("car", carName),
				log.String("track", track.Name),
				log.String("driver", driver))
		}
		rec.Observe(o.cfg.Drivers, track, res)
	}

	for _, driver := range o.cfg.Drivers {
		r, ok := rec.Recommendation(driver)
		if !ok {
			o.l.Info("No recommended track", log.String("car", carName), log.String("driver", driver))
			continue
		}
		o.l.Info("Recommended track",
			log.String("car", carName),
			log.String("driver", driver),
			log.String("track", r.Track),
			log.String("worldRecord", internal.FormatSeconds(r.WorldRecord)),
			log.Int("total", r.Total))
	}
	return o.writeRecommendations(ctx, car, carName, rec)
}

func (o *Orchestrator) writeRecommendations(
	ctx context.Context,
	car internal.CarID,
	carName string,
	rec *internal.Recommender,
) error {
	if o.cfg.Sheet.RecommendationSheet == "" {
		return nil
	}
	idx := lo.IndexOf(o.cfg.Cars, car)
	if idx < 0 {
		o.l.Warn("Car is not configured, recommendation not written", log.String("car", carName))
		return nil
	}
	sheet := internal.NewRecommendationSheet(o.writer, o.limiter, o.recLayout, o.cfg.Sheet.RecommendationSheet)
	if err := sheet.Write(ctx, idx, carName, rec); err != nil {
		return fmt.Errorf("%s recommendations: %w", carName, err)
	}
	return nil
}

// SaveAllCars processes the cars one after the other; the first error aborts the run
func (o *Orchestrator) SaveAllCars(ctx context.Context, cars []internal.CarID) error {
	start := time.Now()
	for _, car := range cars {
		if err := o.SaveCar(ctx, car); err != nil {
			return err
		}
	}
	o.l.Info("All cars saved", log.Int("cars", len(cars)), log.Duration("duration", time.Since(start)))
	return nil
}

// Pass runs SaveAllCars and records the pass timestamps. An empty car list
// means every configured car.
func (o *Orchestrator) Pass(ctx context.Context, cars []internal.CarID) error {
	if len(cars) == 0 {
		cars = o.cfg.Cars
	}
	o.tracker.SaveFetchStart()
	if err := o.SaveAllCars(ctx, cars); err != nil {
		return err
	}
	end := o.tracker.SaveFetchEnd()
	o.l.Info("Last update", log.Time("at", end))

	if rng := o.cfg.Sheet.LastUpdateRange; rng != "" {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := o.writer.UpdateValues(ctx, rng, [][]any{{end.Format(lastUpdateLayout)}}); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
	}
	return nil
}

// Watch runs a pass immediately and then again on every interval or
// trigger until ctx is done or a pass fails
func (o *Orchestrator) Watch(ctx context.Context, triggers <-chan []internal.CarID) error {
	scheduler := internal.NewScheduler(o.cfg.Schedule.Interval, triggers)
	return scheduler.Run(ctx, o.Pass)
}

// Lookup polls a single car/track combination without writing anything
func (o *Orchestrator) Lookup(ctx context.Context, car internal.CarID, layoutID int) (internal.Combo, internal.LeaderboardResult, error) {
	carName, err := o.gameData.CarName(car)
	if err != nil {
		return internal.Combo{}, internal.LeaderboardResult{}, err
	}
	trackName, err := o.gameData.TrackName(layoutID)
	if err != nil {
		return internal.Combo{}, internal.LeaderboardResult{}, err
	}
	combo := internal.Combo{
		Car:     car,
		CarName: carName,
		Track:   internal.TrackConfig{Name: trackName, LayoutID: layoutID},
	}
	res, err := o.poller.Poll(ctx, combo)
	return combo, res, err
}
