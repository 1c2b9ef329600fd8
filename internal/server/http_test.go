package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"trip-agent/internal/app"
	"trip-agent/internal/config"
	"trip-agent/internal/llm"
	"trip-agent/internal/storage"
	"trip-agent/internal/thread"
	"trip-agent/internal/tool"
)

type fixedProvider struct {
	content string
}

func (p fixedProvider) Chat(ctx context.Context, _ llm.ChatRequest) (llm.ChatResponse, error) {
	if h := llm.StreamHandlerFromContext(ctx); h != nil {
		h(p.content)
	}
	return llm.ChatResponse{Content: p.content}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "threads.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Config{Model: "test-model", MaxToolRounds: 3}
	a := app.New(cfg, thread.NewManager(store), tool.NewRegistry(), fixedProvider{content: "hello"})
	srv := httptest.NewServer(New(a).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestCreateAndListThreads(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/threads", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var created struct {
		ThreadID string `json:"thread_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(created.ThreadID, "th_") {
		t.Fatalf("unexpected thread id: %q", created.ThreadID)
	}

	// A thread has no stored messages until a turn completes; the list is
	// still empty.
	listResp, err := http.Get(srv.URL + "/threads")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var listed struct {
		Threads []string `json:"threads"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Threads) != 0 {
		t.Fatalf("expected no persisted threads, got %v", listed.Threads)
	}
}

func TestTurnStreamsEventsAndPersists(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/threads/th_test/turns", "application/json",
		strings.NewReader(`{"input":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	raw := readAll(t, resp)
	if !strings.Contains(raw, "event: token") {
		t.Fatalf("missing token event in stream: %q", raw)
	}
	if !strings.Contains(raw, "event: final") {
		t.Fatalf("missing final event in stream: %q", raw)
	}
	if !strings.Contains(raw, `"hello"`) {
		t.Fatalf("missing streamed text: %q", raw)
	}

	histResp, err := http.Get(srv.URL + "/threads/th_test")
	if err != nil {
		t.Fatal(err)
	}
	defer histResp.Body.Close()
	var hist struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(histResp.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("expected user+assistant, got %d messages", len(hist.Messages))
	}
	if hist.Messages[1].Content != "hello" {
		t.Fatalf("unexpected assistant content: %q", hist.Messages[1].Content)
	}
}

func TestTurnRejectsBadBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/threads/th_x/turns", "application/json",
		strings.NewReader(`{"input":"hi","bogus":1}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}
