package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"trip-agent/internal/config"
	"trip-agent/internal/llm"
	"trip-agent/internal/message"
	"trip-agent/internal/thread"
	"trip-agent/internal/tool"
)

// ErrToolRoundsExceeded marks a turn aborted because the model kept
// requesting tools past the configured bound.
var ErrToolRoundsExceeded = errors.New("tool call rounds exceeded")

type TurnRequest struct {
	ThreadID string
	Input    string
}

type TurnResponse struct {
	ThreadID   string
	Output     string
	ToolRounds int
}

// App drives one conversation turn at a time: submit the effective history
// to the model, then either finish (no tool calls) or execute the requested
// batch and resubmit. A turn's messages are accumulated in memory and
// persisted in a single append once the turn completes, so a fatal failure
// never leaves an unresolved tool request in the thread log.
type App struct {
	cfg     config.Config
	threads *thread.Manager
	tools   *tool.Registry
	llm     llm.Provider
}

func New(cfg config.Config, threads *thread.Manager, tools *tool.Registry, provider llm.Provider) *App {
	return &App{
		cfg:     cfg,
		threads: threads,
		tools:   tools,
		llm:     provider,
	}
}

func (a *App) ListThreadIDs(ctx context.Context) ([]string, error) {
	return a.threads.ListThreadIDs(ctx)
}

// LoadThread returns the stored history re-rendered for display. The
// injected system directive never appears.
func (a *App) LoadThread(ctx context.Context, threadID string) ([]thread.RenderedMessage, error) {
	stored, err := a.threads.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return thread.Rendered(stored), nil
}

func (a *App) HandleTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return TurnResponse{}, errors.New("input is empty")
	}
	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = thread.NewThreadID()
	}

	release := a.threads.Lock(threadID)
	defer release()

	stored, err := a.threads.Load(ctx, threadID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("load thread: %w", err)
	}
	history := thread.EffectiveHistory(SystemDirective, stored)

	ctx = llm.WithStreamHandler(ctx, func(delta string) {
		emitEvent(ctx, Event{Type: EventToken, Text: delta})
	})

	specs := a.toolSpecs()
	pending := []message.Message{message.User(input)}

	for round := 0; ; round++ {
		resp, llmErr := a.llm.Chat(ctx, llm.ChatRequest{
			Model:       a.cfg.Model,
			Messages:    append(append([]message.Message(nil), history...), pending...),
			Tools:       specs,
			Temperature: a.cfg.Temperature,
			MaxTokens:   a.cfg.MaxTokens,
		})
		if llmErr != nil {
			return TurnResponse{}, fmt.Errorf("model call failed: %w", llmErr)
		}

		if len(resp.ToolCalls) == 0 {
			pending = append(pending, message.Assistant(resp.Content, nil))
			if err := a.threads.Append(ctx, threadID, pending); err != nil {
				return TurnResponse{}, fmt.Errorf("persist turn: %w", err)
			}
			return TurnResponse{ThreadID: threadID, Output: resp.Content, ToolRounds: round}, nil
		}

		if round >= a.cfg.MaxToolRounds {
			return TurnResponse{}, fmt.Errorf("%w: limit %d", ErrToolRoundsExceeded, a.cfg.MaxToolRounds)
		}

		pending = append(pending, message.Assistant(resp.Content, resp.ToolCalls))
		for _, res := range a.runToolBatch(ctx, resp.ToolCalls) {
			pending = append(pending, message.Tool(res))
		}
	}
}

// runToolBatch executes one batch of requested invocations concurrently.
// Results are collected, and later appended, in the order the model issued
// the requests regardless of completion order.
func (a *App) runToolBatch(ctx context.Context, calls []message.ToolCall) []message.ToolResult {
	results := make([]message.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		emitEvent(ctx, Event{Type: EventToolStart, Text: summarizeToolCall(call)})
		g.Go(func() error {
			res, err := a.tools.Run(gctx, call.Name, call.Args)
			if err != nil {
				// Orchestration faults (unknown tool, bad dispatch) are fed
				// back to the model like any recoverable tool error.
				raw, _ := json.Marshal(map[string]string{"error": err.Error()})
				res = tool.Result{Output: string(raw)}
			}
			results[i] = message.ToolResult{ID: call.ID, Name: call.Name, Output: res.Output}
			return nil
		})
	}
	_ = g.Wait()
	for _, res := range results {
		emitEvent(ctx, Event{Type: EventToolDone, Text: summarizeToolResult(res)})
	}
	return results
}

func (a *App) toolSpecs() []llm.ToolSpec {
	tools := a.tools.Tools()
	specs := make([]llm.ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return specs
}

// summarizeToolCall renders a one-line "tool(param=value, ...)" entry for
// the execution log.
func summarizeToolCall(call message.ToolCall) string {
	var args map[string]any
	if err := json.Unmarshal(call.Args, &args); err != nil || len(args) == 0 {
		return call.Name
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return call.Name + "(" + strings.Join(parts, ", ") + ")"
}

func summarizeToolResult(res message.ToolResult) string {
	var out map[string]any
	if err := json.Unmarshal([]byte(res.Output), &out); err == nil {
		if reason, ok := out["error"].(string); ok && reason != "" {
			return res.Name + ": error: " + clip(reason, 160)
		}
		if count, ok := out["count"].(float64); ok {
			return fmt.Sprintf("%s: found %d results", res.Name, int(count))
		}
	}
	return res.Name + ": " + clip(res.Output, 160)
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
