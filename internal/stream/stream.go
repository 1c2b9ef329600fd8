// Package stream adapts a blocking conversation turn into channels of
// incremental output for interactive frontends.
package stream

import (
	"context"

	"trip-agent/internal/app"
)

type result struct {
	resp app.TurnResponse
	err  error
}

// Turn is one in-flight conversation turn. Tokens and ToolLog must be
// drained; both close when the turn finishes, after which Wait returns the
// final outcome. A Turn is single-use.
type Turn struct {
	tokens  chan string
	toolLog chan string
	done    chan result
}

// StartTurn launches the turn in a goroutine and returns immediately. Token
// deltas and tool log lines arrive in the order the turn produces them.
func StartTurn(ctx context.Context, a *app.App, threadID, input string) *Turn {
	t := &Turn{
		tokens:  make(chan string, 64),
		toolLog: make(chan string, 16),
		done:    make(chan result, 1),
	}
	ctx = app.WithEventHandler(ctx, func(ev app.Event) {
		switch ev.Type {
		case app.EventToken:
			t.tokens <- ev.Text
		case app.EventToolStart:
			t.toolLog <- "-> " + ev.Text
		case app.EventToolDone:
			t.toolLog <- "<- " + ev.Text
		}
	})
	go func() {
		resp, err := a.HandleTurn(ctx, app.TurnRequest{ThreadID: threadID, Input: input})
		close(t.tokens)
		close(t.toolLog)
		t.done <- result{resp: resp, err: err}
	}()
	return t
}

// Tokens yields assistant text deltas as the model streams them.
func (t *Turn) Tokens() <-chan string { return t.tokens }

// ToolLog yields one line per tool start and completion.
func (t *Turn) ToolLog() <-chan string { return t.toolLog }

// Wait blocks until the turn finishes and returns its outcome. On error the
// response is zero-valued and nothing was persisted.
func (t *Turn) Wait() (app.TurnResponse, error) {
	res := <-t.done
	return res.resp, res.err
}
