package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // driver: sqlite

	"study-quiz-service/internal/domain"
)

// DefaultDSN keeps history next to the binary when no DSN is configured.
const DefaultDSN = "file:quiz-history.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS quiz_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  session_id TEXT NOT NULL DEFAULT '',
  entry_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_history_user_idx ON quiz_history (user_id, id);
`

// Open opens the SQLite database and ensures the history schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// HistoryStore is the single-file history backend used by the terminal player
// and small deployments without Postgres.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (h *HistoryStore) Append(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO quiz_history (user_id, session_id, entry_json, created_at) VALUES (?, ?, ?, ?)`,
		userID, entry.SessionID, string(raw), entry.Date.Unix())
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT entry_json FROM quiz_history WHERE user_id=? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (h *HistoryStore) Delete(ctx context.Context, userID string, index int) error {
	if index < 0 {
		return domain.ErrHistoryNotFound
	}
	res, err := h.db.ExecContext(ctx, `
		DELETE FROM quiz_history WHERE id = (
			SELECT id FROM quiz_history WHERE user_id=? ORDER BY id LIMIT 1 OFFSET ?
		)`, userID, index)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if n == 0 {
		return domain.ErrHistoryNotFound
	}
	return nil
}
