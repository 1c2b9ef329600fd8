package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trip-agent/internal/cache"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

// weatherTool delegates forecast synthesis to the OpenWeather assistant
// endpoint: one natural-language prompt in, one answer text out, no local
// parsing.
type weatherTool struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache
}

func newWeatherTool(baseURL, apiKey string, store *cache.Cache) *weatherTool {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = openWeatherBaseURL
	}
	return &weatherTool{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   store,
	}
}

func (t *weatherTool) Name() string { return "search_weather" }

func (t *weatherTool) Description() string {
	return "Get a human-readable weather forecast for a location and date range."
}

func (t *weatherTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"location": {"type": "string", "description": "City or location name, e.g. Paris, France"},
			"start_date": {"type": "string", "description": "Start date in YYYY-MM-DD format"},
			"end_date": {"type": "string", "description": "End date in YYYY-MM-DD format"}
		},
		"required": ["location", "start_date", "end_date"]
	}`)
}

func (t *weatherTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Location  string `json:"location"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return errorResult("location, start_date and end_date are required"), nil
	}
	if t.apiKey == "" {
		return errorResult("OPENWEATHER_API_KEY not found in environment"), nil
	}

	prompt := fmt.Sprintf("What's the weather forecast for %s from %s to %s?", in.Location, in.StartDate, in.EndDate)
	key := "weather_assistant:" + prompt
	if t.cache != nil {
		if raw, ok := t.cache.Get(key); ok {
			return Result{Output: string(raw)}, nil
		}
	}

	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/assistant/session", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult(fmt.Sprintf("weather HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))), nil
	}

	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return errorResult("decode weather response: " + err.Error()), nil
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return errorResult("No weather data returned from API"), nil
	}

	out := toJSON(map[string]string{"weather": parsed.Answer})
	if t.cache != nil {
		_ = t.cache.Set(key, json.RawMessage(out))
	}
	return Result{Output: out}, nil
}
