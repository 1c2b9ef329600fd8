package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type attractionsTool struct {
	serp *SerpClient
}

func (t *attractionsTool) Name() string { return "search_attractions" }

func (t *attractionsTool) Description() string {
	return "Find tourist attractions and places to visit in a location. Category defaults to tourist_attraction; museum, park and restaurant are also useful."
}

func (t *attractionsTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"location": {"type": "string", "description": "City or location name, e.g. Paris, France"},
			"category": {"type": "string", "description": "Type of attractions: tourist_attraction, museum, park, restaurant"}
		},
		"required": ["location"]
	}`)
}

type attractionSummary struct {
	Name        any    `json:"name"`
	Rating      any    `json:"rating"`
	Reviews     any    `json:"reviews"`
	Type        any    `json:"type"`
	Address     any    `json:"address"`
	Description string `json:"description"`
}

func (t *attractionsTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Location string `json:"location"`
		Category string `json:"category"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Location) == "" {
		return errorResult("location is required"), nil
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = "tourist_attraction"
	}

	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", fmt.Sprintf("%s in %s", in.Category, in.Location))
	params.Set("type", "search")
	params.Set("hl", "en")

	key := t.serp.CacheKey("attractions", params)
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

	local := getSlice(resp, "local_results")
	attractions := make([]attractionSummary, 0, 15)
	for _, item := range local {
		if len(attractions) >= 15 {
			break
		}
		place, ok := item.(map[string]any)
		if !ok {
			continue
		}
		attractions = append(attractions, attractionSummary{
			Name:        place["title"],
			Rating:      place["rating"],
			Reviews:     place["reviews"],
			Type:        place["type"],
			Address:     place["address"],
			Description: truncate(getString(place, "description"), 200),
		})
	}

	payload := map[string]any{"attractions": attractions, "count": len(attractions)}
	return Result{Output: t.serp.StoreResult(key, payload)}, nil
}
