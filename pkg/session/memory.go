package session

import (
	"context"
	"sync"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// MemoryStore keeps the identifier for the lifetime of the process.
type MemoryStore struct {
	mu sync.RWMutex
	id types.SessionID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored identifier.
func (s *MemoryStore) Load(_ context.Context) (types.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.id, nil
}

// Save stores id.
func (s *MemoryStore) Save(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id

	return nil
}

// Clear forgets the identifier.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""

	return nil
}

// Name returns "memory".
func (s *MemoryStore) Name() string {
	return "memory"
}
