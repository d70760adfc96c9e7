package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.BlackboardStore using the local filesystem.
// It stores one JSON file per document in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".parley/blackboards".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".parley", "blackboards")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("documentID cannot be empty")
	}
	if strings.ContainsAny(documentID, `/\`) || documentID == "." || documentID == ".." {
		return "", fmt.Errorf("invalid documentID %q", documentID)
	}
	return filepath.Join(s.BasePath, documentID+".json"), nil
}

// Save persists the blackboard atomically: it writes a temporary file in the
// same directory, syncs it and renames it over the destination.
func (s *Store) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	destPath, err := s.path(documentID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure blackboard directory: %w", err)
	}

	data, err := document.MarshalBlackboard(vars)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+documentID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing blackboard file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the blackboard of a document.
func (s *Store) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	filePath, err := s.path(documentID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrBlackboardNotFound
		}
		return nil, fmt.Errorf("failed to read blackboard file: %w", err)
	}
	return document.UnmarshalBlackboard(data)
}

// Delete removes the blackboard file.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	filePath, err := s.path(documentID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blackboard file: %w", err)
	}
	return nil
}

// List returns the documents with a stored blackboard.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list blackboards: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
