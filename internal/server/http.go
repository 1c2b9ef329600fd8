package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trip-agent/internal/app"
	"trip-agent/internal/stream"
	"trip-agent/internal/thread"
)

type HTTPServer struct {
	app *app.App
}

func New(a *app.App) *HTTPServer {
	return &HTTPServer{app: a}
}

func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/threads", s.handleThreads)
	mux.HandleFunc("/threads/", s.handleThreadSub)
	return mux
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleThreads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		writeJSON(w, http.StatusOK, map[string]any{"thread_id": thread.NewThreadID()})
	case http.MethodGet:
		ids, err := s.app.ListThreadIDs(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"threads": ids})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleThreadSub(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/threads/")
	path = strings.Trim(path, "/")
	if path == "" {
		writeErr(w, http.StatusBadRequest, "thread id required")
		return
	}
	parts := strings.Split(path, "/")
	tid := parts[0]
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		history, err := s.app.LoadThread(r.Context(), tid)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"thread_id": tid, "messages": history})
		return
	}

	if parts[1] != "turns" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	s.streamTurn(w, r, tid, req.Input)
}

// streamTurn answers POST /threads/{id}/turns with server-sent events:
// token and tool events as they happen, then one final (or error) event.
func (s *HTTPServer) streamTurn(w http.ResponseWriter, r *http.Request, threadID, input string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	turn := stream.StartTurn(r.Context(), s.app, threadID, input)
	tokens := turn.Tokens()
	toolLog := turn.ToolLog()
	for tokens != nil || toolLog != nil {
		select {
		case tok, open := <-tokens:
			if !open {
				tokens = nil
				continue
			}
			writeEvent(w, flusher, "token", map[string]string{"text": tok})
		case line, open := <-toolLog:
			if !open {
				toolLog = nil
				continue
			}
			writeEvent(w, flusher, "tool", map[string]string{"text": line})
		}
	}

	resp, err := turn.Wait()
	if err != nil {
		writeEvent(w, flusher, "error", map[string]string{"error": err.Error()})
		return
	}
	writeEvent(w, flusher, "final", resp)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw)
	flusher.Flush()
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	var extra struct{}
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("request must contain one JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
