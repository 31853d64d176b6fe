package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var (
	ErrMalformedResponse = errors.New("malformed leaderboard response")

	resultsPath = jp.MustParseString("$.context.c.results")
)

// FetchError is returned for non-2xx leaderboard responses
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("GET %s failed: %d", e.URL, e.StatusCode)
}

// LeaderboardEntry is one row of a leaderboard listing, in rank order
type LeaderboardEntry struct {
	Driver  string
	LapTime string
}

// APIClient handles all API communications with RaceRoom
type APIClient struct {
	client  *http.Client
	baseURL string
	agent   string
	count   int
}

// NewAPIClient creates a new API client from the leaderboard settings
func NewAPIClient(cfg LeaderboardConfig) *APIClient {
	return &APIClient{
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		baseURL: cfg.BaseURL,
		agent:   cfg.UserAgent,
		count:   cfg.Count,
	}
}

// ListingURL builds the listing URL for a layout and car or class
func (api *APIClient) ListingURL(layoutID int, car CarID) string {
	q := url.Values{}
	q.Set("start", "0")
	q.Set("count", strconv.Itoa(api.count))
	q.Set("track", strconv.Itoa(layoutID))
	q.Set("car_class", car.String())
	return api.baseURL + "/leaderboard/listing/0?" + q.Encode()
}

// FetchLeaderboard retrieves the full leaderboard for a layout and car or class
func (api *APIClient) FetchLeaderboard(ctx context.Context, layoutID int, car CarID) ([]LeaderboardEntry, time.Duration, error) {
	startTime := time.Now()
	apiURL := api.ListingURL(layoutID, car)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", api.agent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := api.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused on the next attempt
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, 0, &FetchError{StatusCode: resp.StatusCode, URL: apiURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// a stalled or reset body is a transport failure like a failed Do
		return nil, 0, &url.Error{Op: "Get", URL: apiURL, Err: err}
	}
	entries, err := parseListing(body)
	if err != nil {
		return nil, 0, err
	}
	return entries, time.Since(startTime), nil
}

func parseListing(body []byte) ([]LeaderboardEntry, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	results, ok := resultsPath.First(doc).([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing context.c.results", ErrMalformedResponse)
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, r := range results {
		row, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: result %d is not an object", ErrMalformedResponse, i)
		}
		var entry LeaderboardEntry
		if driver, ok := row["driver"].(map[string]any); ok {
			entry.Driver, _ = driver["name"].(string)
		}
		entry.LapTime, _ = row["laptime"].(string)
		entries = append(entries, entry)
	}
	return entries, nil
}
