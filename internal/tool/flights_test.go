package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trip-agent/internal/cache"
)

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func flightOffer(price int, legs int) map[string]any {
	flightLegs := make([]any, 0, legs)
	for i := 0; i < legs; i++ {
		flightLegs = append(flightLegs, map[string]any{
			"airline":           fmt.Sprintf("Airline%d", i+1),
			"departure_airport": map[string]any{"time": fmt.Sprintf("2026-09-01 0%d:00", i+1)},
			"arrival_airport":   map[string]any{"time": fmt.Sprintf("2026-09-01 0%d:45", i+2)},
		})
	}
	return map[string]any{
		"price":          price,
		"flights":        flightLegs,
		"total_duration": 105,
		"booking_token":  "tok",
	}
}

func TestFlightsTruncatesToTenPreferringBest(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "google_flights", r.URL.Query().Get("engine"))
		require.NotEmpty(t, r.URL.Query().Get("api_key"))

		best := make([]any, 0, 3)
		for i := 0; i < 3; i++ {
			best = append(best, flightOffer(100+i, 1))
		}
		other := make([]any, 0, 12)
		for i := 0; i < 12; i++ {
			other = append(other, flightOffer(200+i, 2))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"best_flights": best, "other_flights": other})
	}))
	defer srv.Close()

	tool := &flightsTool{serp: NewSerpClient(srv.URL, "test-key", testCache(t))}
	res, err := tool.Run(context.Background(), json.RawMessage(`{"departure":"JFK","arrival":"CDG","outbound_date":"2026-09-01"}`))
	require.NoError(t, err)

	var out struct {
		Flights []flightSummary `json:"flights"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	require.Equal(t, 10, out.Count)
	require.Len(t, out.Flights, 10)

	// Best offers lead, single leg each.
	require.Equal(t, 0, out.Flights[0].Stops)
	require.Equal(t, "Airline1", out.Flights[0].Airline)
	// The tail comes from "other", two legs each.
	require.Equal(t, 1, out.Flights[9].Stops)
	require.Equal(t, "Airline1, Airline2", out.Flights[9].Airline)
	require.Equal(t, "2026-09-01 01:00", out.Flights[9].DepartureTime)
	require.Equal(t, "2026-09-01 03:45", out.Flights[9].ArrivalTime)

	// A repeated request is served from the cache.
	_, err = tool.Run(context.Background(), json.RawMessage(`{"departure":"JFK","arrival":"CDG","outbound_date":"2026-09-01"}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())
}

func TestFlightsMissingCredential(t *testing.T) {
	tool := &flightsTool{serp: NewSerpClient("", "", testCache(t))}
	res, err := tool.Run(context.Background(), json.RawMessage(`{"departure":"JFK","arrival":"CDG","outbound_date":"2026-09-01"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"SERPAPI_API_KEY not found in environment"}`, res.Output)
}

func TestFlightsProviderErrorIsNotCached(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if calls.Load() == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "quota exceeded"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"best_flights": []any{flightOffer(100, 1)}})
	}))
	defer srv.Close()

	tool := &flightsTool{serp: NewSerpClient(srv.URL, "test-key", testCache(t))}
	args := json.RawMessage(`{"departure":"JFK","arrival":"CDG","outbound_date":"2026-09-01"}`)

	res, err := tool.Run(context.Background(), args)
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"quota exceeded"}`, res.Output)

	// The failure self-heals on the next attempt.
	res, err = tool.Run(context.Background(), args)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	require.Equal(t, float64(1), out["count"])
	require.Equal(t, int64(2), calls.Load())
}

func TestFlightsCacheKeyExcludesAPIKey(t *testing.T) {
	serp := NewSerpClient("", "super-secret", nil)
	key := serp.CacheKey("flights", mustValues(t, "departure_id", "JFK"))
	require.NotContains(t, key, "super-secret")
}
