package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"study-quiz-service/internal/domain"
)

// HistoryStore keeps finished attempts in quiz_history, ordered by insertion.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (h *HistoryStore) Append(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = h.pool.Exec(ctx,
		`INSERT INTO quiz_history (user_id, session_id, entry, created_at) VALUES ($1, $2, $3, $4)`,
		userID, entry.SessionID, raw, entry.Date)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := h.pool.Query(ctx, `SELECT entry FROM quiz_history WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes the index-th entry of the user's list as returned by List.
func (h *HistoryStore) Delete(ctx context.Context, userID string, index int) error {
	if index < 0 {
		return domain.ErrHistoryNotFound
	}
	tag, err := h.pool.Exec(ctx, `
		DELETE FROM quiz_history WHERE id = (
			SELECT id FROM quiz_history WHERE user_id=$1 ORDER BY id OFFSET $2 LIMIT 1
		)`, userID, index)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHistoryNotFound
	}
	return nil
}
