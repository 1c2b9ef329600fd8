package tool

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"trip-agent/internal/cache"
)

type stubTool struct{}

func (stubTool) Name() string        { return "stub" }
func (stubTool) Description() string { return "test stub" }
func (stubTool) Schema() []byte      { return []byte(`{"type":"object"}`) }
func (stubTool) Run(context.Context, json.RawMessage) (Result, error) {
	return Result{Output: `{"ok":true}`}, nil
}

func TestRegistryRegisterAndRun(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(stubTool{}); err != nil {
		t.Fatal(err)
	}
	if !reg.Has("stub") {
		t.Fatal("expected tool to be registered")
	}
	res, err := reg.Run(context.Background(), "stub", nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Output != `{"ok":true}` {
		t.Fatalf("unexpected output: %q", res.Output)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(stubTool{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(stubTool{}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistryUnknownToolIsError(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Run(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegisterBuiltinsFullSet(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	reg := NewRegistry()
	if err := RegisterBuiltins(reg, Options{Cache: store}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"calculator",
		"google_search",
		"search_attractions",
		"search_flights",
		"search_hotels",
		"search_weather",
		"search_youtube_vlogs",
	}
	got := reg.List()
	if len(got) != len(want) {
		t.Fatalf("unexpected tool list: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %q want %q", i, got[i], want[i])
		}
	}
}
