package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trip-agent/internal/cache"
)

const serpAPIBaseURL = "https://serpapi.com"

// SerpClient is the shared transport for all SerpAPI-backed tools. Every
// search runs the same cycle: cache check, HTTP call on a miss, cache fill
// only on success.
type SerpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *cache.Cache
}

func NewSerpClient(baseURL, apiKey string, store *cache.Cache) *SerpClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = serpAPIBaseURL
	}
	return &SerpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   store,
	}
}

// CacheKey derives a deterministic key from the tool identity and the
// request parameters. The API key is never part of the key material.
func (c *SerpClient) CacheKey(prefix string, params url.Values) string {
	return prefix + ":" + params.Encode()
}

func (c *SerpClient) Cached(key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	raw, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	return string(raw), true
}

// StoreResult caches the normalized payload and returns its JSON encoding.
// Cache write failures are swallowed; caching is never a correctness
// dependency.
func (c *SerpClient) StoreResult(key string, payload any) string {
	out := toJSON(payload)
	if c.cache != nil {
		_ = c.cache.Set(key, json.RawMessage(out))
	}
	return out
}

// MissingKey reports whether the provider credential is absent, in which
// case callers must degrade to the shared error contract.
func (c *SerpClient) MissingKey() bool {
	return c.apiKey == ""
}

// Fetch performs the external call and decodes the provider response.
// A provider-reported error is returned as an error so it is never cached.
func (c *SerpClient) Fetch(ctx context.Context, params url.Values) (map[string]any, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if reason, ok := parsed["error"].(string); ok && reason != "" {
		return nil, fmt.Errorf("%s", reason)
	}
	return parsed, nil
}

// Helpers for walking loosely typed provider responses.

func getSlice(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func getMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func getNumber(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
