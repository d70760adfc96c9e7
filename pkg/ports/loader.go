package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// DocumentLoader defines how the engine retrieves dialogue documents.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type DocumentLoader interface {
	// LoadDocument returns the document with the given ID.
	// Returns domain.ErrDocumentNotFound when it does not exist.
	LoadDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns the IDs of all available documents.
	ListDocuments(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel receiving the ID of each document that changed.
	Watch(ctx context.Context) (<-chan string, error)
}
