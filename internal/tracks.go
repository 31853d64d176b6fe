package internal

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrUnknownCar    = errors.New("unknown car")
	ErrUnknownLayout = errors.New("unknown layout")

	carIDPattern = regexp.MustCompile(`^(class-)?[0-9]+$`)
)

const classPrefix = "class-"

// CarID identifies either a single car ("8257") or a car class ("class-1703")
type CarID string

func (c CarID) IsClass() bool {
	return strings.HasPrefix(string(c), classPrefix)
}

// Number returns the numeric part without the class prefix
func (c CarID) Number() string {
	return strings.TrimPrefix(string(c), classPrefix)
}

func (c CarID) String() string {
	return string(c)
}

func (c CarID) Validate() error {
	if !carIDPattern.MatchString(string(c)) {
		return fmt.Errorf("invalid car id %q: expected <digits> or class-<digits>", string(c))
	}
	return nil
}

// ParseCarIDs converts raw config values into validated car ids
func ParseCarIDs(raw []string) ([]CarID, error) {
	ids := lo.Map(raw, func(s string, _ int) CarID { return CarID(strings.TrimSpace(s)) })
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// TrackConfig represents a track layout
type TrackConfig struct {
	Name     string
	LayoutID int
}

type namedItem struct {
	Name string `json:"Name"`
}

type layoutRef struct {
	Name string `json:"Name"`
	ID   int    `json:"Id"`
}

type trackData struct {
	Name    string      `json:"Name"`
	Layouts []layoutRef `json:"layouts"`
}

type layoutData struct {
	Name  string `json:"Name"`
	Track int    `json:"Track"`
}

// GameData is the subset of r3e-data.json needed to name tracks and cars
type GameData struct {
	Tracks  map[string]trackData  `json:"tracks"`
	Layouts map[string]layoutData `json:"layouts"`
	Cars    map[string]namedItem  `json:"cars"`
	Classes map[string]namedItem  `json:"classes"`
}

// LoadGameData reads the reference dataset shipped with the game
func LoadGameData(path string) (*GameData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game data: %w", err)
	}
	var gd GameData
	if err := json.Unmarshal(data, &gd); err != nil {
		return nil, fmt.Errorf("parse game data %s: %w", path, err)
	}
	return &gd, nil
}

// GetTracks returns every layout as "<track> - <layout>", sorted by name.
// Duplicate names keep the layout of the lowest track id.
func (gd *GameData) GetTracks() []TrackConfig {
	byName := make(map[string]int)
	for _, key := range sortedTrackKeys(gd.Tracks) {
		t := gd.Tracks[key]
		for _, l := range t.Layouts {
			name := t.Name + " - " + l.Name
			if _, seen := byName[name]; !seen {
				byName[name] = l.ID
			}
		}
	}
	tracks := lo.MapToSlice(byName, func(name string, id int) TrackConfig {
		return TrackConfig{Name: name, LayoutID: id}
	})
	slices.SortFunc(tracks, func(a, b TrackConfig) int {
		return strings.Compare(a.Name, b.Name)
	})
	return tracks
}

// sortedTrackKeys orders track ids numerically, non-numeric ids last
func sortedTrackKeys(tracks map[string]trackData) []string {
	keys := lo.Keys(tracks)
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}

// CarName resolves a car or class id to its display name
func (gd *GameData) CarName(id CarID) (string, error) {
	items := gd.Cars
	if id.IsClass() {
		items = gd.Classes
	}
	item, ok := items[id.Number()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCar, id)
	}
	return item.Name, nil
}

// TrackName resolves a layout id to "<track> - <layout>"
func (gd *GameData) TrackName(layoutID int) (string, error) {
	layout, ok := gd.Layouts[strconv.Itoa(layoutID)]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownLayout, layoutID)
	}
	track, ok := gd.Tracks[strconv.Itoa(layout.Track)]
	if !ok {
		return "", fmt.Errorf("%w: %d (track %d)", ErrUnknownLayout, layoutID, layout.Track)
	}
	return track.Name + " - " + layout.Name, nil
}
