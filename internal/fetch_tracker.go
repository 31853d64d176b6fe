package internal

import (
	"sync"
	"time"
)

// PassTimestamps stores the timing of the latest pass over all cars
type PassTimestamps struct {
	LastPassStart time.Time
	LastPassEnd   time.Time
	Passes        int
}

// FetchTracker records when watch mode passes start and complete
type FetchTracker struct {
	mu  sync.RWMutex
	ts  PassTimestamps
	now func() time.Time
}

// NewFetchTracker creates a new fetch tracker
func NewFetchTracker() *FetchTracker {
	return &FetchTracker{now: time.Now}
}

// SaveFetchStart records when a pass started
func (ft *FetchTracker) SaveFetchStart() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.ts.LastPassStart = ft.now()
	return ft.ts.LastPassStart
}

// SaveFetchEnd records a completed pass and returns its end time
func (ft *FetchTracker) SaveFetchEnd() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.ts.LastPassEnd = ft.now()
	ft.ts.Passes++
	return ft.ts.LastPassEnd
}

// LastUpdate returns the end of the last completed pass
func (ft *FetchTracker) LastUpdate() (time.Time, bool) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return ft.ts.LastPassEnd, !ft.ts.LastPassEnd.IsZero()
}

// Timestamps returns a copy of the recorded timestamps
func (ft *FetchTracker) Timestamps() PassTimestamps {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return ft.ts
}
