package store

import (
	"context"
	"sync"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
)

// MemStore is an in-memory Store, suitable for tests and single-process
// deployments. Ported from dshills-langgraph-go/graph/store.MemStore's
// mutex-protected-map shape, narrowed to the pause/event surface.
type MemStore struct {
	mu     sync.RWMutex
	pauses map[string]pauseEntry
	events map[string][]emit.Event
}

type pauseEntry struct {
	record  PauseRecord
	expires time.Time
}

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		pauses: make(map[string]pauseEntry),
		events: make(map[string][]emit.Event),
	}
}

func (m *MemStore) SavePause(_ context.Context, token string, record PauseRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.pauses[token] = pauseEntry{record: record, expires: expires}
	return nil
}

func (m *MemStore) LoadPause(_ context.Context, token string) (PauseRecord, error) {
	m.mu.RLock()
	entry, ok := m.pauses[token]
	m.mu.RUnlock()
	if !ok {
		return PauseRecord{}, ErrNotFound
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		m.mu.Lock()
		delete(m.pauses, token)
		m.mu.Unlock()
		return PauseRecord{}, ErrNotFound
	}
	return entry.record, nil
}

func (m *MemStore) DeletePause(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pauses, token)
	return nil
}

func (m *MemStore) AppendEvent(_ context.Context, traceID string, ev emit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[traceID] = append(m.events[traceID], ev)
	return nil
}

func (m *MemStore) ListEvents(_ context.Context, traceID string) ([]emit.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.events[traceID]
	out := make([]emit.Event, len(src))
	copy(out, src)
	return out, nil
}

var _ Store = (*MemStore)(nil)
