package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable holds the runtime blackboards.
const DefaultTable = "parley_blackboards"

// Store implements ports.BlackboardStore on PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// New connects to dsn and ensures the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool, table: DefaultTable}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	table := pgx.Identifier{s.table}.Sanitize()
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    document_id TEXT PRIMARY KEY,
    data        JSONB NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`, table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Save upserts the blackboard of a document.
func (s *Store) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	data, err := document.MarshalBlackboard(vars)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (document_id, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (document_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		pgx.Identifier{s.table}.Sanitize())
	if _, err := s.pool.Exec(ctx, query, documentID, data); err != nil {
		return fmt.Errorf("saving blackboard %s: %w", documentID, err)
	}
	return nil
}

// Load reads the blackboard of a document.
func (s *Store) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	var data []byte
	query := fmt.Sprintf(`SELECT data FROM %s WHERE document_id = $1`, pgx.Identifier{s.table}.Sanitize())
	err := s.pool.QueryRow(ctx, query, documentID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBlackboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading blackboard %s: %w", documentID, err)
	}
	return document.UnmarshalBlackboard(data)
}

// Delete removes the blackboard of a document.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, pgx.Identifier{s.table}.Sanitize())
	if _, err := s.pool.Exec(ctx, query, documentID); err != nil {
		return fmt.Errorf("deleting blackboard %s: %w", documentID, err)
	}
	return nil
}

// List returns the documents with a stored blackboard.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT document_id FROM %s ORDER BY document_id`, pgx.Identifier{s.table}.Sanitize())
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing blackboards: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing blackboards: %w", err)
	}
	return ids, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
