package tool

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

type googleSearchTool struct {
	serp *SerpClient
}

func (t *googleSearchTool) Name() string { return "google_search" }

func (t *googleSearchTool) Description() string {
	return "Search the web for AI-curated results and summaries. Use for general travel questions not covered by the other tools."
}

func (t *googleSearchTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query string"}
		},
		"required": ["query"]
	}`)
}

func (t *googleSearchTool) Run(ctx context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(in.Query) == "" {
		return errorResult("query is required"), nil
	}

	params := url.Values{}
	params.Set("engine", "google_ai_mode")
	params.Set("q", in.Query)
	params.Set("hl", "en")

	key := t.serp.CacheKey("google_search", params)
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

	payload := map[string]any{"summary": summarizeTextBlocks(getSlice(resp, "text_blocks"))}
	return Result{Output: t.serp.StoreResult(key, payload)}, nil
}

// summarizeTextBlocks concatenates headings and paragraphs verbatim and
// list items behind a bullet marker, separated by blank lines.
func summarizeTextBlocks(blocks []any) string {
	var parts []string
	for _, item := range blocks {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch getString(block, "type") {
		case "heading", "paragraph":
			if snippet := getString(block, "snippet"); snippet != "" {
				parts = append(parts, snippet)
			}
		case "list":
			for _, li := range getSlice(block, "list") {
				entry, ok := li.(map[string]any)
				if !ok {
					continue
				}
				text := getString(entry, "snippet")
				if text == "" {
					text = getString(entry, "title")
				}
				if text != "" {
					parts = append(parts, "• "+text)
				}
			}
		}
	}
	if len(parts) == 0 {
		return "No summary available"
	}
	return strings.Join(parts, "\n\n")
}
