// Package checkpoint records which schools have already been processed so an
// interrupted run resumes instead of restarting.
package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/udisescan/udisescan/internal/logger"
)

// Store is a sqlite-backed set of processed school identifiers, partitioned
// by scope (one scope per output file).
type Store struct {
	db *sql.DB
}

// Open opens or creates the checkpoint database at path. Use ":memory:" for
// an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint db: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS processed (
			scope      TEXT NOT NULL,
			udise_code TEXT NOT NULL,
			marked_at  TEXT NOT NULL,
			PRIMARY KEY (scope, udise_code)
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init checkpoint schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Seen reports whether the code was already marked within the scope.
func (s *Store) Seen(ctx context.Context, scope, udiseCode string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed WHERE scope = ? AND udise_code = ?`,
		scope, udiseCode).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checkpoint lookup failed: %w", err)
	}
	return true, nil
}

// Mark records the code as processed. Marking twice is a no-op.
func (s *Store) Mark(ctx context.Context, scope, udiseCode string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed (scope, udise_code, marked_at) VALUES (?, ?, ?)`,
		scope, udiseCode, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("checkpoint mark failed: %w", err)
	}
	return nil
}

// Count returns how many codes are marked within the scope.
func (s *Store) Count(ctx context.Context, scope string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed WHERE scope = ?`, scope).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("checkpoint count failed: %w", err)
	}
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	logger.Debug("checkpoint store closed")
	return s.db.Close()
}
