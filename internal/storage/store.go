package storage

import (
	"context"

	"trip-agent/internal/message"
)

// Store is the durable, append-only thread log. Appends to one thread must
// never be interleaved; callers serialize writers per thread id.
type Store interface {
	AppendMessages(ctx context.Context, threadID string, msgs []message.Message) error
	LoadThread(ctx context.Context, threadID string) ([]message.Message, error)
	ListThreadIDs(ctx context.Context) ([]string, error)
}
