// Package sqlite implements checkpoint.Store on SQLite using modernc.org/sqlite.
// The schema is created automatically in the constructor; a failure there is
// fatal and should abort startup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/checkpoint"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
)

// Store implements checkpoint.Store using a SQLite database. One row per
// thread id; each save overwrites the prior checkpoint.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Interface compliance (compile-time assertion)
var _ checkpoint.Store = (*Store)(nil)

// New creates a SQLite checkpoint store at the given path. Parent directories
// are created if needed and the schema is created if it doesn't exist.
func New(path string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("checkpoint store initialized", "path", path)
	return s, nil
}

// NewFromDB wraps an existing database handle, creating the schema if needed.
// Useful when the checkpoint and history stores share one database file.
func NewFromDB(db *sql.DB, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id TEXT PRIMARY KEY,
			position TEXT NOT NULL,
			state BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads the checkpoint for a thread. Unknown threads yield (nil, nil).
func (s *Store) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM checkpoints WHERE thread_id = ?", threadID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &checkpoint.PersistenceError{Op: "load", ThreadID: threadID, Err: err}
	}

	var state core.ConversationState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, &checkpoint.PersistenceError{Op: "load", ThreadID: threadID, Err: fmt.Errorf("decoding state: %w", err)}
	}
	return &state, nil
}

// Save overwrites the checkpoint for a thread with the full state snapshot.
func (s *Store) Save(ctx context.Context, threadID string, state *core.ConversationState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return &checkpoint.PersistenceError{Op: "save", ThreadID: threadID, Err: fmt.Errorf("encoding state: %w", err)}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, position, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			position = excluded.position,
			state = excluded.state,
			updated_at = excluded.updated_at
	`, threadID, string(state.Position), blob, time.Now().UTC())
	if err != nil {
		return &checkpoint.PersistenceError{Op: "save", ThreadID: threadID, Err: err}
	}

	s.logger.Debug("checkpoint saved", "thread_id", threadID, "position", string(state.Position), "messages", len(state.Messages))
	return nil
}

// DB exposes the underlying database handle so other stores can share the
// same file.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
