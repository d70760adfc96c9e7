package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
)

// Loader implements ports.DocumentLoader using an in-memory map.
// Documents are kept in their persisted form, so every load returns an
// independent copy.
type Loader struct {
	mu    sync.RWMutex
	files map[string]document.File
	codec *document.Codec
}

// NewLoader creates a loader holding the given documents.
func NewLoader(docs ...*domain.Document) (*Loader, error) {
	l := &Loader{
		files: make(map[string]document.File),
		codec: document.NewCodec(),
	}
	for _, doc := range docs {
		if err := l.Put(doc); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put adds or replaces a document.
func (l *Loader) Put(doc *domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document missing ID")
	}
	f, err := l.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[doc.ID] = f
	return nil
}

// LoadDocument decodes a fresh copy of the document.
func (l *Loader) LoadDocument(ctx context.Context, id string) (*domain.Document, error) {
	l.mu.RLock()
	f, ok := l.files[id]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return l.codec.Decode(f)
}

// ListDocuments returns all document IDs.
func (l *Loader) ListDocuments(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.files))
	for id := range l.files {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
