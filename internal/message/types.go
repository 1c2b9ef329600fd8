package message

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one utterance in a thread. Assistant messages may carry tool
// calls; tool messages carry the result for exactly one originating call,
// correlated through ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToolCall is an invocation requested by the model. Produced only by the
// model, never hand-constructed outside of tests.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the normalized output of one tool invocation. Output holds
// the JSON payload; recoverable failures arrive as an {"error": ...} payload
// in Output rather than as a Go error.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Output string `json:"output"`
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content, CreatedAt: time.Now().UTC()}
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}
}

func Assistant(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, CreatedAt: time.Now().UTC()}
}

func Tool(res ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Content:    res.Output,
		ToolCallID: res.ID,
		ToolName:   res.Name,
		CreatedAt:  time.Now().UTC(),
	}
}
