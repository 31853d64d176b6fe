package internal

// DriverResult is a target driver's entry on a leaderboard
type DriverResult struct {
	Driver  string
	LapTime string
	Rank    int
}

// LeaderboardResult summarises a leaderboard for the target drivers.
// An empty leaderboard has Total == 0 and no world record.
type LeaderboardResult struct {
	WorldRecord string
	Total       int
	Drivers     map[string]DriverResult
}

// Empty reports whether the leaderboard had no entries
func (r LeaderboardResult) Empty() bool {
	return r.Total == 0
}

// Driver returns the result of a target driver, if present
func (r LeaderboardResult) Driver(name string) (DriverResult, bool) {
	d, ok := r.Drivers[name]
	return d, ok
}

// ExtractResults takes entry 0 as the world record and locates every target
// driver by exact name; the first match wins and rank is the 1-based position.
func ExtractResults(entries []LeaderboardEntry, drivers []string) (LeaderboardResult, error) {
	result := LeaderboardResult{Drivers: make(map[string]DriverResult)}
	if len(entries) == 0 {
		return result, nil
	}

	wr, err := LapTimeSeconds(entries[0].LapTime)
	if err != nil {
		return LeaderboardResult{}, err
	}
	result.WorldRecord = FormatSeconds(wr)
	result.Total = len(entries)

	targets := make(map[string]struct{}, len(drivers))
	for _, d := range drivers {
		targets[d] = struct{}{}
	}

	for i, entry := range entries {
		if _, wanted := targets[entry.Driver]; !wanted {
			continue
		}
		if _, seen := result.Drivers[entry.Driver]; seen {
			continue
		}
		lapTime, err := FormatLapTime(entry.LapTime)
		if err != nil {
			return LeaderboardResult{}, err
		}
		result.Drivers[entry.Driver] = DriverResult{
			Driver:  entry.Driver,
			LapTime: lapTime,
			Rank:    i + 1,
		}
	}
	return result, nil
}
