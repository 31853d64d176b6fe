package internal

import (
	"github.com/shopspring/decimal"
)

// Recommendation is the track a driver should try next for a car
type Recommendation struct {
	Track       string
	WorldRecord decimal.Decimal
	Total       int
}

// Recommender picks, per driver, the untried track with the lowest world
// record among tracks with enough participants. Use one per car.
type Recommender struct {
	minParticipants int
	excludedTrack   int
	best            map[string]Recommendation
}

func NewRecommender(minParticipants, excludedTrack int) *Recommender {
	return &Recommender{
		minParticipants: minParticipants,
		excludedTrack:   excludedTrack,
		best:            make(map[string]Recommendation),
	}
}

// Observe feeds one scanned track into every driver's recommendation
func (r *Recommender) Observe(drivers []string, track TrackConfig, res LeaderboardResult) {
	if track.LayoutID == r.excludedTrack || res.Total < r.minParticipants {
		return
	}
	wr, err := ParseSeconds(res.WorldRecord)
	if err != nil {
		return
	}
	for _, driver := range drivers {
		if _, ok := res.Driver(driver); ok {
			continue
		}
		cur, ok := r.best[driver]
		if !ok || wr.LessThan(cur.WorldRecord) {
			r.best[driver] = Recommendation{Track: track.Name, WorldRecord: wr, Total: res.Total}
		}
	}
}

// Recommendation returns the final pick for a driver, if any track qualified
func (r *Recommender) Recommendation(driver string) (Recommendation, bool) {
	rec, ok := r.best[driver]
	return rec, ok
}
