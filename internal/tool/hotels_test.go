package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func hotelProperty(name string, price float64, rating float64) map[string]any {
	prop := map[string]any{
		"name":           name,
		"overall_rating": rating,
		"reviews":        100,
		"amenities":      []any{"wifi", "pool", "gym", "spa", "bar", "parking", "sauna"},
		"link":           "https://example.com/" + name,
		"description":    strings.Repeat("x", 300),
	}
	if price > 0 {
		prop["rate_per_night"] = map[string]any{"extracted_lowest": price}
	}
	return prop
}

func TestHotelsRankZeroPriceLast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "google_hotels", r.URL.Query().Get("engine"))
		require.Equal(t, "3", r.URL.Query().Get("sort_by"))
		_ = json.NewEncoder(w).Encode(map[string]any{"properties": []any{
			hotelProperty("B", 0, 5),
			hotelProperty("A", 100, 5),
		}})
	}))
	defer srv.Close()

	tool := &hotelsTool{serp: NewSerpClient(srv.URL, "test-key", testCache(t))}
	res, err := tool.Run(context.Background(), json.RawMessage(`{"location":"Paris","check_in_date":"2026-09-01","check_out_date":"2026-09-05"}`))
	require.NoError(t, err)

	var out struct {
		Hotels []hotelSummary `json:"hotels"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	require.Equal(t, 2, out.Count)
	require.Equal(t, "A", out.Hotels[0].Name)
	require.Equal(t, "B", out.Hotels[1].Name)
	require.Len(t, out.Hotels[0].Amenities, 5)
	require.Len(t, out.Hotels[0].Description, 200)
}

func TestHotelsValueScore(t *testing.T) {
	require.InDelta(t, 0.88, valueScore(100, 5), 1e-9)
	require.Zero(t, valueScore(0, 5))
	// Prices above the $500 ceiling clamp the price term to zero.
	require.InDelta(t, 0.32, valueScore(900, 4), 1e-9)
}

func TestHotelsTopTen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		props := make([]any, 0, 14)
		for i := 0; i < 14; i++ {
			props = append(props, hotelProperty("h", float64(100+i*10), 4))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"properties": props})
	}))
	defer srv.Close()

	tool := &hotelsTool{serp: NewSerpClient(srv.URL, "test-key", testCache(t))}
	res, err := tool.Run(context.Background(), json.RawMessage(`{"location":"Rome","check_in_date":"2026-09-01","check_out_date":"2026-09-05"}`))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	require.Equal(t, float64(10), out["count"])
}
