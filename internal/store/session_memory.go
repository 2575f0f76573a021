package store

import (
	"context"
	"sync"
	"time"

	"github.com/powderplan/powderplan/internal/domain"
)

// MemorySessionStore keeps sessions in a process-local map. Entries live
// until explicitly deleted; there is no implicit expiry. Safe for
// concurrent use across sessions.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domain.Session),
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy out so callers cannot mutate the stored entry.
	return &sess, nil
}

// Put replaces any existing entry for the session's ID.
func (s *MemorySessionStore) Put(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	stored.UpdatedAt = time.Now()
	s.sessions[sess.ID] = stored
	return nil
}

// Delete removes the entry if present. Deleting an absent session is a
// no-op.
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
