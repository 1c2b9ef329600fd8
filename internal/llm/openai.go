package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"trip-agent/internal/message"
)

// OpenAIProvider drives a chat-completions endpoint in streaming mode and
// accumulates the response into a single ChatResponse. Token deltas are
// forwarded to the handler carried in the request context, if any.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")))
	}
	if strings.TrimSpace(apiKey) != "" {
		opts = append(opts, option.WithAPIKey(strings.TrimSpace(apiKey)))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  strings.TrimSpace(model),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if len(req.Messages) == 0 {
		return ChatResponse{}, errors.New("messages cannot be empty")
	}
	model := req.Model
	if model == "" {
		model = p.model
	}
	if model == "" {
		return ChatResponse{}, errors.New("model is required")
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: toMessageParams(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	tools, err := toToolParams(req.Tools)
	if err != nil {
		return ChatResponse{}, err
	}
	params.Tools = tools

	handler := StreamHandlerFromContext(ctx)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if handler != nil && len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				handler(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return ChatResponse{}, fmt.Errorf("chat stream failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return ChatResponse{}, err
	}
	if len(acc.Choices) == 0 {
		return ChatResponse{}, errors.New("empty chat choices")
	}

	choice := acc.Choices[0]
	out := ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	return out, nil
}

func toMessageParams(msgs []message.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case message.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case message.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case message.RoleAssistant:
			am := openai.AssistantMessage(m.Content)
			for _, call := range m.ToolCalls {
				am.OfAssistant.ToolCalls = append(am.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(call.Args),
						},
					},
				})
			}
			out = append(out, am)
		case message.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func toToolParams(specs []ToolSpec) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema map[string]any
		if len(spec.Schema) > 0 {
			if err := json.Unmarshal(spec.Schema, &schema); err != nil {
				return nil, fmt.Errorf("tool %s schema: %w", spec.Name, err)
			}
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        spec.Name,
					Description: openai.String(spec.Description),
					Parameters:  openai.FunctionParameters(schema),
				},
			},
		})
	}
	return out, nil
}
