package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// BlackboardStore persists runtime blackboards, keyed by document ID.
// It is what lets designer-visible state survive between conversations
// and process restarts.
type BlackboardStore interface {
	// Save persists the runtime blackboard of a document.
	Save(ctx context.Context, documentID string, vars *domain.Blackboard) error

	// Load retrieves the runtime blackboard of a document.
	// Returns domain.ErrBlackboardNotFound if nothing was saved.
	Load(ctx context.Context, documentID string) (*domain.Blackboard, error)

	// Delete removes the runtime blackboard of a document.
	Delete(ctx context.Context, documentID string) error

	// List returns the IDs of documents with a saved blackboard.
	List(ctx context.Context) ([]string, error)
}
