package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
)

// SQLiteStore implements Store on SQLite using modernc.org/sqlite. The seq
// column gives a strict insertion order so queries don't depend on timestamp
// resolution.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a history store at the given path, creating parent
// directories and the schema if needed.
func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("history store initialized", "path", path)
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing handle, creating the schema if needed.
func NewSQLiteStoreFromDB(db *sql.DB, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			content TEXT NOT NULL,
			message_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_participants
			ON messages (sender, recipient);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one record.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, sender, recipient, content, message_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.From, rec.To, rec.Content, rec.Type, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending history record: %w", err)
	}
	s.logger.Debug("history record appended", "from", rec.From, "to", rec.To, "type", rec.Type)
	return nil
}

// Query returns up to limit records exchanged between a and b, most recent
// first. An empty b matches any counterparty of a.
func (s *SQLiteStore) Query(ctx context.Context, a, b string, limit int) ([]Record, error) {
	query := `
		SELECT id, sender, recipient, content, message_type, created_at
		FROM messages
		WHERE (sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)
		ORDER BY seq DESC
		LIMIT ?
	`
	args := []any{a, b, b, a, limit}
	if b == "" {
		query = `
			SELECT id, sender, recipient, content, message_type, created_at
			FROM messages
			WHERE sender = ? OR recipient = ?
			ORDER BY seq DESC
			LIMIT ?
		`
		args = []any{a, a, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.From, &rec.To, &rec.Content, &rec.Type, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
