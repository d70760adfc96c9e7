package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/document"
	"github.com/aretw0/parley/pkg/domain"

	_ "modernc.org/sqlite"
)

const ddl = `
CREATE TABLE IF NOT EXISTS blackboards (
	document_id TEXT PRIMARY KEY,
	data        TEXT NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);`

// Store implements ports.BlackboardStore on a SQLite database.
type Store struct {
	db *sql.DB
}

// New opens the database behind a sqlite:// DSN and ensures the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if driverDSN == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save upserts the blackboard of a document.
func (s *Store) Save(ctx context.Context, documentID string, vars *domain.Blackboard) error {
	data, err := document.MarshalBlackboard(vars)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO blackboards (document_id, data, updated_at)
	VALUES (?, ?, datetime('now'))
	ON CONFLICT (document_id) DO UPDATE SET
		data = excluded.data,
		updated_at = excluded.updated_at`,
		documentID, string(data))
	if err != nil {
		return fmt.Errorf("saving blackboard %s: %w", documentID, err)
	}
	return nil
}

// Load reads the blackboard of a document.
func (s *Store) Load(ctx context.Context, documentID string) (*domain.Blackboard, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM blackboards WHERE document_id = ?`, documentID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBlackboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading blackboard %s: %w", documentID, err)
	}
	return document.UnmarshalBlackboard([]byte(data))
}

// Delete removes the blackboard of a document.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blackboards WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting blackboard %s: %w", documentID, err)
	}
	return nil
}

// List returns the documents with a stored blackboard.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id FROM blackboards ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("listing blackboards: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
