package thread

import (
	"strings"

	"trip-agent/internal/message"
)

// EffectiveHistory is the message sequence actually submitted to the model:
// the fixed system directive followed by the stored history. The prepend is
// idempotent; a history that already opens with a system message passes
// through unchanged.
func EffectiveHistory(directive string, stored []message.Message) []message.Message {
	if len(stored) > 0 && stored[0].Role == message.RoleSystem {
		return stored
	}
	out := make([]message.Message, 0, len(stored)+1)
	out = append(out, message.System(directive))
	return append(out, stored...)
}

// RenderedMessage is the display-layer view of one utterance.
type RenderedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Rendered re-renders a stored history as role+content pairs for display.
// System directives and tool plumbing are suppressed; only user text and
// assistant answers survive.
func Rendered(stored []message.Message) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(stored))
	for _, m := range stored {
		switch m.Role {
		case message.RoleUser:
			out = append(out, RenderedMessage{Role: "user", Content: m.Content})
		case message.RoleAssistant:
			if strings.TrimSpace(m.Content) == "" {
				continue
			}
			out = append(out, RenderedMessage{Role: "assistant", Content: m.Content})
		}
	}
	return out
}
