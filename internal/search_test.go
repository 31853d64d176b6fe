package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResults(t *testing.T) {
	res, err := ExtractResults(aliceBob, []string{"Bob"})
	require.NoError(t, err)

	assert.Equal(t, "60,000", res.WorldRecord)
	assert.Equal(t, 2, res.Total)
	bob, ok := res.Driver("Bob")
	require.True(t, ok)
	assert.Equal(t, "61,000", bob.LapTime)
	assert.Equal(t, 2, bob.Rank)
}

func TestExtractResults_MultipleDrivers(t *testing.T) {
	entries := []LeaderboardEntry{
		{Driver: "Alice", LapTime: "1m 23.456s"},
		{Driver: "Carol", LapTime: "1m 24.000s"},
		{Driver: "Bob", LapTime: "1m 25.100s"},
		{Driver: "Carol", LapTime: "1m 26.000s"},
	}
	res, err := ExtractResults(entries, []string{"Alice", "Carol", "Dave"})
	require.NoError(t, err)

	assert.Equal(t, "83,456", res.WorldRecord)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, map[string]DriverResult{
		"Alice": {Driver: "Alice", LapTime: "83,456", Rank: 1},
		"Carol": {Driver: "Carol", LapTime: "84,000", Rank: 2},
	}, res.Drivers)
	_, ok := res.Driver("Dave")
	assert.False(t, ok)
}

func TestExtractResults_RankWithinTotal(t *testing.T) {
	res, err := ExtractResults(aliceBob, []string{"Alice", "Bob"})
	require.NoError(t, err)
	for _, d := range res.Drivers {
		assert.GreaterOrEqual(t, d.Rank, 1)
		assert.LessOrEqual(t, d.Rank, res.Total)
	}
}

func TestExtractResults_Empty(t *testing.T) {
	res, err := ExtractResults(nil, []string{"Bob"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.WorldRecord)
}

func TestExtractResults_NameMatchIsExact(t *testing.T) {
	res, err := ExtractResults(aliceBob, []string{"bob"})
	require.NoError(t, err)
	assert.Empty(t, res.Drivers)
}

func TestExtractResults_BadLapTime(t *testing.T) {
	_, err := ExtractResults([]LeaderboardEntry{{Driver: "Alice", LapTime: "DNF"}}, []string{"Alice"})
	assert.Error(t, err)
}
