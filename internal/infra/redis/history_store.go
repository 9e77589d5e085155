package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"study-quiz-service/internal/domain"
)

// deletedMarker replaces an entry before LREM so removal by index is exact even
// when two entries serialize identically.
const deletedMarker = "__deleted__"

// HistoryStore keeps each user's history as a Redis list of JSON entries.
// Stored as: RPUSH quiz:history:{userID} <json>
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func (h *HistoryStore) Append(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := h.client.RPush(ctx, h.key(userID), raw).Err(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	raws, err := h.client.LRange(ctx, h.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	entries := make([]domain.HistoryEntry, 0, len(raws))
	for _, raw := range raws {
		if raw == deletedMarker {
			continue
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (h *HistoryStore) Delete(ctx context.Context, userID string, index int) error {
	key := h.key(userID)
	n, err := h.client.LLen(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if index < 0 || int64(index) >= n {
		return domain.ErrHistoryNotFound
	}
	return h.removeAt(ctx, key, int64(index))
}

// removeAt replaces the entry with the marker and removes it in one MULTI. The list may
// have shrunk since the caller checked its length, so LSET range errors mean not found.
func (h *HistoryStore) removeAt(ctx context.Context, key string, index int64) error {
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LSet(ctx, key, index, deletedMarker)
		pipe.LRem(ctx, key, 1, deletedMarker)
		return nil
	})
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "index out of range") || strings.Contains(msg, "no such key") {
		return domain.ErrHistoryNotFound
	}
	return fmt.Errorf("delete history: %w", err)
}

func (h *HistoryStore) key(userID string) string {
	return "quiz:history:" + userID
}
