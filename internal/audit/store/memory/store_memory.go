package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"carelog/internal/audit"
	id "carelog/pkg/domain"
)

type shiftKey struct {
	scope id.ScopeID
	owner id.OwnerID
	shift id.ShiftID
}

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
	byID    map[uuid.UUID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[uuid.UUID]struct{})}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.byID = make(map[uuid.UUID]struct{})
}

// Append is idempotent on entry ID, mirroring the Postgres store's
// ON CONFLICT DO NOTHING behavior.
func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[entry.ID]; ok {
		return nil
	}
	s.byID[entry.ID] = struct{}{}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByShift(_ context.Context, scope id.ScopeID, owner id.OwnerID, shift id.ShiftID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := shiftKey{scope: scope, owner: owner, shift: shift}
	var matched []audit.Entry
	for _, e := range s.entries {
		if (shiftKey{scope: e.ScopeID, owner: e.OwnerID, shift: e.ShiftID}) == key {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// ListRecent returns the most recent N entries in append order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.entries) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Entry{}, s.entries[start:]...), nil
}
