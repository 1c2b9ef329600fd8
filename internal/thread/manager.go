package thread

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"trip-agent/internal/message"
	"trip-agent/internal/storage"
)

// Manager owns thread identity and the single-writer rule: at most one
// in-flight turn per thread id. Reads are unrestricted.
type Manager struct {
	store storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store storage.Store) *Manager {
	return &Manager{
		store: store,
		locks: map[string]*sync.Mutex{},
	}
}

// NewThreadID generates a process-wide-unique thread id. The store treats it
// as opaque.
func NewThreadID() string {
	return "th_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String())
}

// Lock acquires the per-thread turn lock and returns its release func.
// The append-only log is not safe against interleaved appends, so a turn
// holds this for its entire duration.
func (m *Manager) Lock(threadID string) func() {
	m.mu.Lock()
	l, ok := m.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[threadID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (m *Manager) Append(ctx context.Context, threadID string, msgs []message.Message) error {
	return m.store.AppendMessages(ctx, threadID, msgs)
}

func (m *Manager) Load(ctx context.Context, threadID string) ([]message.Message, error) {
	return m.store.LoadThread(ctx, threadID)
}

func (m *Manager) ListThreadIDs(ctx context.Context) ([]string, error) {
	return m.store.ListThreadIDs(ctx)
}
