package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardWithout(wr string, total int) LeaderboardResult {
	return LeaderboardResult{WorldRecord: wr, Total: total, Drivers: map[string]DriverResult{}}
}

func TestRecommender_PicksLowestQualifyingRecord(t *testing.T) {
	r := NewRecommender(5, 10274)
	drivers := []string{"Bob"}

	r.Observe(drivers, TrackConfig{Name: "TrackA", LayoutID: 1}, boardWithout("50,000", 6))
	r.Observe(drivers, TrackConfig{Name: "TrackB", LayoutID: 2}, boardWithout("48,000", 4))
	r.Observe(drivers, TrackConfig{Name: "TrackC", LayoutID: 3}, boardWithout("52,000", 10))

	rec, ok := r.Recommendation("Bob")
	require.True(t, ok)
	assert.Equal(t, "TrackA", rec.Track)
	assert.Equal(t, "50", rec.WorldRecord.String())
	assert.Equal(t, 6, rec.Total)
}

func TestRecommender_Skips(t *testing.T) {
	r := NewRecommender(5, 10274)
	drivers := []string{"Bob", "Alice"}
	withBob := LeaderboardResult{
		WorldRecord: "40,000",
		Total:       8,
		Drivers:     map[string]DriverResult{"Bob": {Driver: "Bob", LapTime: "41,000", Rank: 3}},
	}

	r.Observe(drivers, TrackConfig{Name: "Driven", LayoutID: 1}, withBob)
	r.Observe(drivers, TrackConfig{Name: "Excluded", LayoutID: 10274}, boardWithout("30,000", 20))
	r.Observe(drivers, TrackConfig{Name: "Empty", LayoutID: 2}, LeaderboardResult{})

	_, ok := r.Recommendation("Bob")
	assert.False(t, ok, "bob has a time on the only qualifying track")

	rec, ok := r.Recommendation("Alice")
	require.True(t, ok)
	assert.Equal(t, "Driven", rec.Track)
}

func TestRecommender_TieKeepsFirst(t *testing.T) {
	r := NewRecommender(5, 0)
	r.Observe([]string{"Bob"}, TrackConfig{Name: "First", LayoutID: 1}, boardWithout("50,000", 5))
	r.Observe([]string{"Bob"}, TrackConfig{Name: "Second", LayoutID: 2}, boardWithout("50,000", 9))

	rec, _ := r.Recommendation("Bob")
	assert.Equal(t, "First", rec.Track)
}
