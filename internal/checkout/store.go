package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store persists checkout sessions between requests. Implementations must
// return (nil, nil) when no session exists for the key.
type Store interface {
	Get(ctx context.Context, key Key) (*Session, error)
	Set(ctx context.Context, key Key, s *Session) error
	Delete(ctx context.Context, key Key) error
}

// MemoryStore keeps sessions as serialized JSON, the same shape the
// storefront persists client-side. Serializing on every write keeps stored
// sessions independent of the caller's copy.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[Key][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (*Session, error) {
	m.mu.RLock()
	raw, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStore) Set(_ context.Context, key Key, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	m.sessions[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
	return nil
}
