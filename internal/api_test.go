package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBody = `{
  "context": {"c": {"results": [
    {"driver": {"name": "Alice"}, "laptime": "1m 00.000s", "global_index": 1},
    {"driver": {"name": "Bob"}, "laptime": "1m 01.000s", "global_index": 2}
  ]}}
}`

func newTestClient(url string) *APIClient {
	return NewAPIClient(LeaderboardConfig{
		BaseURL:        url,
		UserAgent:      "r3e-sheets-test",
		Count:          1500,
		RequestTimeout: 5 * time.Second,
	})
}

func TestAPIClient_FetchLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaderboard/listing/0", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "0", q.Get("start"))
		assert.Equal(t, "1500", q.Get("count"))
		assert.Equal(t, "1846", q.Get("track"))
		assert.Equal(t, "class-1703", q.Get("car_class"))
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "r3e-sheets-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listingBody))
	}))
	defer srv.Close()

	entries, _, err := newTestClient(srv.URL).FetchLeaderboard(context.Background(), 1846, "class-1703")
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardEntry{
		{Driver: "Alice", LapTime: "1m 00.000s"},
		{Driver: "Bob", LapTime: "1m 01.000s"},
	}, entries)
}

func TestAPIClient_FetchLeaderboard_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non 2xx",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				var fe *FetchError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
				assert.True(t, isTransient(err))
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "<html></html>",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				assert.False(t, isTransient(err))
			},
		},
		{
			name:   "missing results",
			status: http.StatusOK,
			body:   `{"context": {"c": {}}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, _, err := newTestClient(srv.URL).FetchLeaderboard(context.Background(), 1846, "8257")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAPIClient_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"context": {"c": {"results": []}}}`))
	}))
	defer srv.Close()

	entries, _, err := newTestClient(srv.URL).FetchLeaderboard(context.Background(), 1846, "8257")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAPIClient_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := newTestClient(url).FetchLeaderboard(context.Background(), 1846, "8257")
	require.Error(t, err)
	assert.True(t, isTransient(err))
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

// stallingServer sends the headers and half of the body, then stalls on the
// first request; later requests get the full listing
func stallingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) > 1 {
			_, _ = w.Write([]byte(listingBody))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(listingBody[:len(listingBody)/2]))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestAPIClient_StalledBodyIsTransient(t *testing.T) {
	srv, _ := stallingServer(t)
	client := newTestClient(srv.URL)
	client.client.Timeout = 100 * time.Millisecond

	_, _, err := client.FetchLeaderboard(context.Background(), 1846, "8257")
	require.Error(t, err)
	assert.True(t, isTransient(err))
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

func TestPoller_RetriesStalledBody(t *testing.T) {
	srv, calls := stallingServer(t)
	cfg := GetDefaultConfig()
	cfg.Leaderboard.BaseURL = srv.URL
	cfg.Leaderboard.RequestTimeout = 100 * time.Millisecond
	cfg.Retry.MaxErrors = 3
	cfg.Retry.Sleep = time.Millisecond
	cfg.Drivers = []string{"Bob"}

	p := NewPoller(NewAPIClient(cfg.Leaderboard), cfg)
	res, err := p.Poll(context.Background(), Combo{
		Car:     "8257",
		CarName: "BMW M4 GT3",
		Track:   TrackConfig{Name: "Bathurst Circuit - Mount Panorama", LayoutID: 1846},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	bob, ok := res.Driver("Bob")
	require.True(t, ok)
	assert.Equal(t, 2, bob.Rank)
}
