package memory

import (
	"context"
	"sync"

	"study-quiz-service/internal/domain"
)

// HistoryStore keeps per-user attempt history in process memory.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[string][]domain.HistoryEntry
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make(map[string][]domain.HistoryEntry)}
}

func (h *HistoryStore) Append(_ context.Context, userID string, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[userID] = append(h.entries[userID], entry)
	return nil
}

func (h *HistoryStore) List(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.HistoryEntry, len(h.entries[userID]))
	copy(out, h.entries[userID])
	return out, nil
}

func (h *HistoryStore) Delete(_ context.Context, userID string, index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.entries[userID]
	if index < 0 || index >= len(entries) {
		return domain.ErrHistoryNotFound
	}
	next := make([]domain.HistoryEntry, 0, len(entries)-1)
	next = append(next, entries[:index]...)
	next = append(next, entries[index+1:]...)
	h.entries[userID] = next
	return nil
}
