package main

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"r3e-sheets/internal"
)

// flagValues holds the raw command line values of the run configuration
type flagValues struct {
	baseURL        string
	count          int
	requestTimeout time.Duration

	maxErrors  int
	retrySleep time.Duration

	gameData        string
	drivers         []string
	cars            []string
	finishedCars    []string
	excludedTrack   int
	minParticipants int

	spreadsheetID       string
	credentials         string
	token               string
	writePause          time.Duration
	blockGap            int
	recommendationSheet string
	lastUpdateRange     string

	interval    time.Duration
	triggerFile string
}

// newFlagValues returns flag values preset with the default configuration
func newFlagValues() *flagValues {
	d := internal.GetDefaultConfig()
	return &flagValues{
		baseURL:         d.Leaderboard.BaseURL,
		count:           d.Leaderboard.Count,
		requestTimeout:  d.Leaderboard.RequestTimeout,
		maxErrors:       d.Retry.MaxErrors,
		retrySleep:      d.Retry.Sleep,
		gameData:        d.GameDataFile,
		drivers:         d.Drivers,
		cars:            carStrings(d.Cars),
		finishedCars:    carStrings(d.FinishedCars),
		excludedTrack:   d.ExcludedTrackID,
		minParticipants: d.MinParticipants,
		credentials:     d.Sheet.CredentialsFile,
		token:           d.Sheet.TokenFile,
		writePause:      d.Sheet.WritePause,
		blockGap:        d.Sheet.BlockGap,
		interval:        d.Schedule.Interval,
		triggerFile:     d.Schedule.TriggerFile,
	}
}

func (v *flagValues) register(fs *pflag.FlagSet) {
	fs.StringVar(&v.baseURL, "base-url", v.baseURL,
		"base URL of the RaceRoom website")
	fs.IntVar(&v.count, "count", v.count,
		"number of leaderboard entries requested per track")
	fs.DurationVar(&v.requestTimeout, "request-timeout", v.requestTimeout,
		"timeout of a single leaderboard request")

	fs.IntVar(&v.maxErrors, "max-errors", v.maxErrors,
		"transient errors tolerated per track before the run aborts")
	fs.DurationVar(&v.retrySleep, "retry-sleep", v.retrySleep,
		"pause between two leaderboard attempts")

	fs.StringVar(&v.gameData, "game-data", v.gameData,
		"path of the RaceRoom reference data (r3e-data.json)")
	fs.StringSliceVar(&v.drivers, "drivers", v.drivers,
		"driver names to look up (exact match)")
	fs.StringSliceVar(&v.cars, "cars", v.cars,
		"car ids to process, either <id> or class-<id>")
	fs.StringSliceVar(&v.finishedCars, "finished-cars", v.finishedCars,
		"car ids on which the drivers completed every track")
	fs.IntVar(&v.excludedTrack, "excluded-track", v.excludedTrack,
		"layout id that never gets retried nor recommended")
	fs.IntVar(&v.minParticipants, "min-participants", v.minParticipants,
		"minimum leaderboard size for a track to be recommended")

	fs.StringVar(&v.spreadsheetID, "spreadsheet-id", v.spreadsheetID,
		"id of the destination spreadsheet")
	fs.StringVar(&v.credentials, "credentials", v.credentials,
		"OAuth client credentials file")
	fs.StringVar(&v.token, "token", v.token,
		"file holding the persisted OAuth token")
	fs.DurationVar(&v.writePause, "write-pause", v.writePause,
		"minimum pause between two spreadsheet writes")
	fs.IntVar(&v.blockGap, "block-gap", v.blockGap,
		"empty columns between two driver blocks")
	fs.StringVar(&v.recommendationSheet, "recommendation-sheet", v.recommendationSheet,
		"sheet receiving the recommended track per car (disabled when empty)")
	fs.StringVar(&v.lastUpdateRange, "last-update-range", v.lastUpdateRange,
		"A1 cell receiving the time of the last completed pass (disabled when empty)")
}

func (v *flagValues) registerWatch(fs *pflag.FlagSet) {
	fs.DurationVar(&v.interval, "interval", v.interval,
		"pause between two passes in watch mode")
	fs.StringVar(&v.triggerFile, "trigger-file", v.triggerFile,
		"file whose creation starts a pass immediately")
}

// Config builds and validates the run configuration
func (v *flagValues) Config() (internal.Config, error) {
	cfg := internal.GetDefaultConfig()
	cfg.Leaderboard.BaseURL = v.baseURL
	cfg.Leaderboard.Count = v.count
	cfg.Leaderboard.RequestTimeout = v.requestTimeout
	cfg.Retry.MaxErrors = v.maxErrors
	cfg.Retry.Sleep = v.retrySleep
	cfg.GameDataFile = v.gameData
	cfg.Drivers = v.drivers
	cfg.ExcludedTrackID = v.excludedTrack
	cfg.MinParticipants = v.minParticipants
	cfg.Sheet = internal.SheetConfig{
		SpreadsheetID:       v.spreadsheetID,
		CredentialsFile:     v.credentials,
		TokenFile:           v.token,
		WritePause:          v.writePause,
		BlockGap:            v.blockGap,
		RecommendationSheet: v.recommendationSheet,
		LastUpdateRange:     v.lastUpdateRange,
	}
	cfg.Schedule = internal.ScheduleConfig{
		Interval:    v.interval,
		TriggerFile: v.triggerFile,
	}

	var err error
	if cfg.Cars, err = internal.ParseCarIDs(v.cars); err != nil {
		return cfg, fmt.Errorf("cars: %w", err)
	}
	if cfg.FinishedCars, err = internal.ParseCarIDs(v.finishedCars); err != nil {
		return cfg, fmt.Errorf("finished-cars: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func carStrings(ids []internal.CarID) []string {
	return lo.Map(ids, func(id internal.CarID, _ int) string { return id.String() })
}
