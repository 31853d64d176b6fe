package internal

import (
	"errors"
	"fmt"
	"time"
)

// Config holds application configuration
type Config struct {
	Leaderboard LeaderboardConfig
	Retry       RetryConfig
	Sheet       SheetConfig
	Schedule    ScheduleConfig

	GameDataFile    string
	Drivers         []string
	Cars            []CarID
	FinishedCars    []CarID
	ExcludedTrackID int
	MinParticipants int
}

// LeaderboardConfig holds settings for the RaceRoom listing endpoint
type LeaderboardConfig struct {
	BaseURL        string
	UserAgent      string
	Count          int
	RequestTimeout time.Duration
}

// RetryConfig holds the shared error budget of the poller
type RetryConfig struct {
	MaxErrors int
	Sleep     time.Duration
}

// SheetConfig holds spreadsheet destination settings
type SheetConfig struct {
	SpreadsheetID       string
	CredentialsFile     string
	TokenFile           string
	WritePause          time.Duration
	BlockGap            int
	RecommendationSheet string
	LastUpdateRange     string
}

// ScheduleConfig holds watch mode settings
type ScheduleConfig struct {
	Interval    time.Duration
	TriggerFile string
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() Config {
	return Config{
		Leaderboard: LeaderboardConfig{
			BaseURL:        "https://game.raceroom.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			Count:          1500,
			RequestTimeout: 20 * time.Second,
		},
		Retry: RetryConfig{
			MaxErrors: 30,
			Sleep:     200 * time.Millisecond,
		},
		Sheet: SheetConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			WritePause:      time.Second,
			BlockGap:        1,
		},
		Schedule: ScheduleConfig{
			Interval:    time.Hour,
			TriggerFile: "refresh.trigger",
		},
		GameDataFile:    "r3e-data.json",
		Drivers:         []string{"Mathieu Blanchard"},
		Cars:            []CarID{"class-1703", "8257", "11536", "5818", "10914", "5051", "11342"},
		FinishedCars:    []CarID{"10914", "5051", "11342"},
		ExcludedTrackID: 10274,
		MinParticipants: 5,
	}
}

// Validate checks values that would otherwise fail deep inside a run
func (c Config) Validate() error {
	var errs []error
	if len(c.Drivers) == 0 {
		errs = append(errs, errors.New("at least one driver is required"))
	}
	if c.Leaderboard.Count < 1 {
		errs = append(errs, fmt.Errorf("count must be positive, got %d", c.Leaderboard.Count))
	}
	if c.Retry.MaxErrors < 0 {
		errs = append(errs, fmt.Errorf("max-errors must not be negative, got %d", c.Retry.MaxErrors))
	}
	if c.Sheet.BlockGap < 0 {
		errs = append(errs, fmt.Errorf("block-gap must not be negative, got %d", c.Sheet.BlockGap))
	}
	for _, id := range append(append([]CarID{}, c.Cars...), c.FinishedCars...) {
		if err := id.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
