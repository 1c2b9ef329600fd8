package tool

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type hotelsTool struct {
	serp *SerpClient
}

func (t *hotelsTool) Name() string { return "search_hotels" }

func (t *hotelsTool) Description() string {
	return "Search for hotel accommodations in a location. Returns the best-value options by a price/rating composite score."
}

func (t *hotelsTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"location": {"type": "string", "description": "City or location name, e.g. Paris, France"},
			"check_in_date": {"type": "string", "description": "Check-in date in YYYY-MM-DD format"},
			"check_out_date": {"type": "string", "description": "Check-out date in YYYY-MM-DD format"},
			"adults": {"type": "integer", "description": "Number of adult guests"}
		},
		"required": ["location", "check_in_date", "check_out_date"]
	}`)
}

type hotelSummary struct {
	Name        any    `json:"name"`
	Price       any    `json:"price"`
	Rating      any    `json:"rating"`
	Reviews     any    `json:"reviews"`
	Amenities   []any  `json:"amenities"`
	Link        any    `json:"link"`
	Description string `json:"description"`

	score float64
}

// valueScore weighs price at 60% and rating at 40%, normalized against a
// $500 ceiling and a 5-star scale. A missing or zero price forces the score
// to 0 so unpriced listings sink to the bottom.
func valueScore(price, rating float64) float64 {
	if price == 0 {
		return 0
	}
	normPrice := price / 500
	if normPrice > 1 {
		normPrice = 1
	}
	return (1-normPrice)*0.6 + (rating/5)*0.4
}

func (t *hotelsTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Location     string `json:"location"`
		CheckInDate  string `json:"check_in_date"`
		CheckOutDate string `json:"check_out_date"`
		Adults       int    `json:"adults"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.CheckInDate) == "" || strings.TrimSpace(in.CheckOutDate) == "" {
		return errorResult("location, check_in_date and check_out_date are required"), nil
	}
	if in.Adults <= 0 {
		in.Adults = 2
	}

	params := url.Values{}
	params.Set("engine", "google_hotels")
	params.Set("q", in.Location)
	params.Set("check_in_date", in.CheckInDate)
	params.Set("check_out_date", in.CheckOutDate)
	params.Set("adults", strconv.Itoa(in.Adults))
	params.Set("currency", "USD")
	params.Set("gl", "us")
	params.Set("hl", "en")
	params.Set("sort_by", "3") // lowest price

	key := t.serp.CacheKey("hotels", params)
	if cached, ok := t.serp.Cached(key); ok {
		return Result{Output: cached}, nil
	}
	if t.serp.MissingKey() {
		return errorResult("SERPAPI_API_KEY not found in environment"), nil
	}

	resp, err := t.serp.Fetch(ctx, params)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	properties := getSlice(resp, "properties")
	hotels := make([]hotelSummary, 0, len(properties))
	for _, item := range properties {
		prop, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rate := getMap(prop, "rate_per_night")
		price := getNumber(rate, "extracted_lowest")
		rating := getNumber(prop, "overall_rating")

		amenities := getSlice(prop, "amenities")
		if len(amenities) > 5 {
			amenities = amenities[:5]
		}
		hotels = append(hotels, hotelSummary{
			Name:        prop["name"],
			Price:       rate["extracted_lowest"],
			Rating:      prop["overall_rating"],
			Reviews:     prop["reviews"],
			Amenities:   amenities,
			Link:        prop["link"],
			Description: truncate(getString(prop, "description"), 200),
			score:       valueScore(price, rating),
		})
	}
	sort.SliceStable(hotels, func(i, j int) bool { return hotels[i].score > hotels[j].score })
	if len(hotels) > 10 {
		hotels = hotels[:10]
	}

	payload := map[string]any{"hotels": hotels, "count": len(hotels)}
	return Result{Output: t.serp.StoreResult(key, payload)}, nil
}
