package middleware_test

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect what was stored.
type MockStore struct {
	data map[string]*domain.Blackboard
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Blackboard),
	}
}

func (s *MockStore) Save(ctx context.Context, id string, vars *domain.Blackboard) error {
	s.data[id] = vars
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (*domain.Blackboard, error) {
	vars, ok := s.data[id]
	if !ok {
		return nil, domain.ErrBlackboardNotFound
	}
	return vars, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.BlackboardStore = (*MockStore)(nil)
