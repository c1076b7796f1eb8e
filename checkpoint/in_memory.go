package checkpoint

import (
	"context"
	"sync"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
)

// InMemoryStore is a volatile Store implementation keeping checkpoints in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. States are cloned on the way in and out to
// prevent external mutation of stored snapshots.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*core.ConversationState
}

// NewInMemoryStore constructs an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*core.ConversationState)}
}

// Load returns a clone of the stored state, or (nil, nil) when the thread is
// unknown.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[threadID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

// Save stores a clone of the provided state snapshot, overwriting any prior
// checkpoint for the thread.
func (s *InMemoryStore) Save(_ context.Context, threadID string, state *core.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[threadID] = state.Clone()
	return nil
}
