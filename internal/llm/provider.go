package llm

import (
	"context"
	"encoding/json"

	"trip-agent/internal/message"
)

// ToolSpec describes one callable capability advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

type ChatRequest struct {
	Model       string
	Messages    []message.Message
	Tools       []ToolSpec
	Temperature float64
	MaxTokens   int
}

// ChatResponse is either a final answer (no ToolCalls) or a batch of
// requested tool invocations, possibly with interim assistant text.
type ChatResponse struct {
	Content      string
	ToolCalls    []message.ToolCall
	FinishReason string
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// StreamHandler receives assistant token deltas as they arrive.
type StreamHandler func(delta string)

type streamHandlerContextKey struct{}

func WithStreamHandler(ctx context.Context, handler StreamHandler) context.Context {
	if handler == nil {
		return ctx
	}
	return context.WithValue(ctx, streamHandlerContextKey{}, handler)
}

// StreamHandlerFromContext returns the registered handler, or nil. Providers
// that stream call it once per request; test doubles may use it to simulate
// token delivery.
func StreamHandlerFromContext(ctx context.Context) StreamHandler {
	if ctx == nil {
		return nil
	}
	h, _ := ctx.Value(streamHandlerContextKey{}).(StreamHandler)
	return h
}
