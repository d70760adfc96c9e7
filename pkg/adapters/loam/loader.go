package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Metadata is the raw front matter (or JSON/YAML body) of a loam document.
type Metadata = map[string]any

// Loader adapts a loam repository to ports.DocumentLoader. Each loam
// document holds one dialogue document in its metadata.
type Loader struct {
	Repo  *loam.TypedRepository[Metadata]
	Codec *document.Codec
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[Metadata]) *Loader {
	return &Loader{
		Repo:  repo,
		Codec: document.NewCodec(),
	}
}

// Open initializes a read-only loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode makes every serializer return json.Number for numbers.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo)), nil
}

// LoadDocument reads and decodes a document. The ID may omit the file extension.
func (l *Loader) LoadDocument(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if known, listErr := l.index(ctx); listErr == nil {
			if _, ok := known[trimExtension(id)]; !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
			}
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	f, err := decodeFile(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	if f.ID == "" {
		f.ID = doc.ID
	}
	f.ID = trimExtension(f.ID)
	if f.Name == "" {
		f.Name = firstLine(doc.Content)
	}
	return l.Codec.Decode(f)
}

// ListDocuments lists all documents in the repository.
func (l *Loader) ListDocuments(ctx context.Context) ([]string, error) {
	known, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// index maps normalized document IDs to the loam document backing them.
func (l *Loader) index(ctx context.Context) (map[string]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		rawID, _ := doc.Data["id"].(string)
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
	}
	return seen, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// decodeFile maps loosely typed metadata onto the persisted schema.
// Numbers may arrive as json.Number, int or float64 depending on the serializer.
func decodeFile(meta Metadata) (document.File, error) {
	var f document.File
	if len(meta) == 0 {
		return f, errors.New("document has no metadata")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return f, err
	}
	if err := dec.Decode(meta); err != nil {
		return f, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return f, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func firstLine(content string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}
