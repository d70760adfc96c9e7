package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.BlackboardStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Blackboard
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Blackboard),
	}
}

// Save persists a copy of the blackboard.
func (s *Store) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	copied := vars.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[documentID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored blackboard.
func (s *Store) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vars, ok := s.data[documentID]
	if !ok {
		return nil, domain.ErrBlackboardNotFound
	}
	return vars.Clone(), nil
}

// Delete removes the blackboard of a document.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, documentID)
	return nil
}

// List returns the documents with a stored blackboard.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
