package tool

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

type flightsTool struct {
	serp *SerpClient
}

func (t *flightsTool) Name() string { return "search_flights" }

func (t *flightsTool) Description() string {
	return "Search for flight options between two cities. Returns prices, airlines, departure/arrival times, durations and stop counts."
}

func (t *flightsTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"departure": {"type": "string", "description": "Departure airport code or city name, e.g. JFK or New York"},
			"arrival": {"type": "string", "description": "Arrival airport code or city name, e.g. CDG or Paris"},
			"outbound_date": {"type": "string", "description": "Departure date in YYYY-MM-DD format"},
			"return_date": {"type": "string", "description": "Return date in YYYY-MM-DD format, omit for one way"},
			"adults": {"type": "integer", "description": "Number of adult passengers"}
		},
		"required": ["departure", "arrival", "outbound_date"]
	}`)
}

type flightSummary struct {
	Price         any    `json:"price"`
	Airline       string `json:"airline"`
	DepartureTime any    `json:"departure_time"`
	ArrivalTime   any    `json:"arrival_time"`
	Duration      any    `json:"duration"`
	Stops         int    `json:"stops"`
	BookingToken  any    `json:"booking_token"`
}

func (t *flightsTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Departure    string `json:"departure"`
		Arrival      string `json:"arrival"`
		OutboundDate string `json:"outbound_date"`
		ReturnDate   string `json:"return_date"`
		Adults       int    `json:"adults"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Departure) == "" || strings.TrimSpace(in.Arrival) == "" || strings.TrimSpace(in.OutboundDate) == "" {
		return errorResult("departure, arrival and outbound_date are required"), nil
	}
	if in.Adults <= 0 {
		in.Adults = 1
	}

	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("departure_id", in.Departure)
	params.Set("arrival_id", in.Arrival)
	params.Set("outbound_date", in.OutboundDate)
	params.Set("adults", strconv.Itoa(in.Adults))
	params.Set("currency", "USD")
	params.Set("hl", "en")
	if strings.TrimSpace(in.ReturnDate) != "" {
		params.Set("return_date", in.ReturnDate)
		params.Set("type", "1") // round trip
	} else {
		params.Set("type", "2") // one way
	}

	key := t.serp.CacheKey("flights", params)
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

	all := append(getSlice(resp, "best_flights"), getSlice(resp, "other_flights")...)
	flights := make([]flightSummary, 0, 10)
	for _, item := range all {
		if len(flights) >= 10 {
			break
		}
		offer, ok := item.(map[string]any)
		if !ok {
			continue
		}
		legs := getSlice(offer, "flights")
		airlines := make([]string, 0, len(legs))
		for _, l := range legs {
			leg, _ := l.(map[string]any)
			airlines = append(airlines, getString(leg, "airline"))
		}
		summary := flightSummary{
			Price:        offer["price"],
			Airline:      strings.Join(airlines, ", "),
			Duration:     offer["total_duration"],
			Stops:        len(legs) - 1,
			BookingToken: offer["booking_token"],
		}
		if len(legs) > 0 {
			if first, ok := legs[0].(map[string]any); ok {
				summary.DepartureTime = getMap(first, "departure_airport")["time"]
			}
			if last, ok := legs[len(legs)-1].(map[string]any); ok {
				summary.ArrivalTime = getMap(last, "arrival_airport")["time"]
			}
		}
		flights = append(flights, summary)
	}

	payload := map[string]any{"flights": flights, "count": len(flights)}
	return Result{Output: t.serp.StoreResult(key, payload)}, nil
}
