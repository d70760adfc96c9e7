package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DocumentLoaderContractTest is a reusable test suite that verifies if an adapter
// complies with ports.DocumentLoader. wantIDs lists the documents the loader
// was seeded with.
func DocumentLoaderContractTest(t *testing.T, loader ports.DocumentLoader, wantIDs []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadDocument_Success", func(t *testing.T) {
		for _, id := range wantIDs {
			doc, err := loader.LoadDocument(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading document %s: %v", id, err)
			}
			if doc.ID != id {
				t.Errorf("document id mismatch: got %q, want %q", doc.ID, id)
			}
		}
	})

	t.Run("LoadDocument_NotFound", func(t *testing.T) {
		_, err := loader.LoadDocument(ctx, "non-existent-document")
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})

	t.Run("ListDocuments", func(t *testing.T) {
		ids, err := loader.ListDocuments(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing documents: %v", err)
		}
		found := make(map[string]bool, len(ids))
		for _, id := range ids {
			found[id] = true
		}
		for _, id := range wantIDs {
			if !found[id] {
				t.Errorf("ListDocuments missing %q (got %v)", id, ids)
			}
		}
	})
}
