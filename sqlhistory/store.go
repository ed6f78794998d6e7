// Package sqlhistory provides a SQLite-backed relay.HistoryStore for
// durable single-node session logs.
package sqlhistory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/relaykit/relay"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// Store is a SQLite-backed history store. The monotonically increasing
// rowid preserves per-session append order regardless of turn timestamps.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New opens (or creates) the database at dsn and runs the schema.
// Use ":memory:" for an ephemeral store.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Append inserts a turn into the session's log.
func (s *Store) Append(ctx context.Context, sessionID string, turn relay.Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, turn.Role, turn.Content, turn.Timestamp,
	)
	if err != nil {
		s.logger.Error("failed to append turn",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Recent returns up to the last 2*k turns, oldest first. Unknown sessions
// yield an empty slice.
func (s *Store) Recent(ctx context.Context, sessionID string, k int) ([]relay.Turn, error) {
	if k <= 0 {
		return []relay.Turn{}, nil
	}

	var turns []relay.Turn
	err := s.db.SelectContext(ctx, &turns,
		`SELECT role, content, created_at FROM turns
		 WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, 2*k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if turns == nil {
		return []relay.Turn{}, nil
	}

	// Query returns newest first; callers expect chronological order.
	slices.Reverse(turns)
	return turns, nil
}

// Clear removes the session's log entirely.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
