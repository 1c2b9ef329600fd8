package tool

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

type youtubeTool struct {
	serp *SerpClient
}

func (t *youtubeTool) Name() string { return "search_youtube_vlogs" }

func (t *youtubeTool) Description() string {
	return "Search for travel vlogs and guides on YouTube. Returns video titles, channels, view counts and links."
}

func (t *youtubeTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query, e.g. Paris travel guide 2025"},
			"max_results": {"type": "integer", "description": "Maximum number of results to return, default 5"}
		},
		"required": ["query"]
	}`)
}

type videoSummary struct {
	Title     any `json:"title"`
	Channel   any `json:"channel"`
	Views     any `json:"views"`
	Published any `json:"published"`
	Duration  any `json:"duration"`
	Link      any `json:"link"`
	Thumbnail any `json:"thumbnail"`
}

func (t *youtubeTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Query) == "" {
		return errorResult("query is required"), nil
	}
	if in.MaxResults <= 0 {
		in.MaxResults = 5
	}

	params := url.Values{}
	params.Set("engine", "youtube")
	params.Set("search_query", in.Query)
	params.Set("hl", "en")

	// max_results shapes the normalized payload, so it must be part of the
	// key even though the provider call does not take it.
	keyParams := url.Values{}
	for k, vs := range params {
		keyParams[k] = vs
	}
	keyParams.Set("max_results", strconv.Itoa(in.MaxResults))
	key := t.serp.CacheKey("youtube", keyParams)
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

	results := getSlice(resp, "video_results")
	videos := make([]videoSummary, 0, in.MaxResults)
	for _, item := range results {
		if len(videos) >= in.MaxResults {
			break
		}
		video, ok := item.(map[string]any)
		if !ok {
			continue
		}
		videos = append(videos, videoSummary{
			Title:     video["title"],
			Channel:   getMap(video, "channel")["name"],
			Views:     video["views"],
			Published: video["published_date"],
			Duration:  video["length"],
			Link:      video["link"],
			Thumbnail: getMap(video, "thumbnail")["static"],
		})
	}

	payload := map[string]any{"videos": videos, "count": len(videos)}
	return Result{Output: t.serp.StoreResult(key, payload)}, nil
}
