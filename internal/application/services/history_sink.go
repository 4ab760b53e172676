package services

import (
	"context"
	"sync"

	"ratewise-service/internal/domain/entities"
)

const (
	DefaultHistoryEntries = 5 // Conversiones recientes que se conservan
)

// MemoryHistorySink guarda las últimas conversiones en memoria, la más reciente primero
type MemoryHistorySink struct {
	mu      sync.RWMutex
	entries []entities.ConversionHistoryEntry
	limit   int
}

// NewMemoryHistorySink crea el sink; limit <= 0 usa DefaultHistoryEntries
func NewMemoryHistorySink(limit int) *MemoryHistorySink {
	if limit <= 0 {
		limit = DefaultHistoryEntries
	}
	return &MemoryHistorySink{limit: limit}
}

func (m *MemoryHistorySink) Append(ctx context.Context, entry entities.ConversionHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]entities.ConversionHistoryEntry, 0, m.limit)
	entries = append(entries, entry)
	entries = append(entries, m.entries...)
	if len(entries) > m.limit {
		entries = entries[:m.limit]
	}
	m.entries = entries
	return nil
}

func (m *MemoryHistorySink) Recent(ctx context.Context) ([]entities.ConversionHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.ConversionHistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}
