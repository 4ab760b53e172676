package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/pkg/utils"
)

const (
	DefaultLatestTTL  = 5 * time.Minute
	DefaultHistoryTTL = time.Duration(0) // los días pasados no cambian
	snapshotKeyPrefix = "rates:"
)

// CacheEntry es el sobre persistido en el backend.
// Es válido mientras now - CachedAt < TTL de su clase de recurso.
type CacheEntry struct {
	Key      string         `json:"key"`
	Payload  snapshotRecord `json:"payload"`
	CachedAt time.Time      `json:"cached_at"`
}

type snapshotRecord struct {
	RetrievedAt time.Time                                     `json:"retrieved_at"`
	Source      string                                        `json:"source"`
	UpdateTime  string                                        `json:"update_time"`
	Rates       map[entities.CurrencyCode]*float64            `json:"rates"`
	Details     map[entities.CurrencyCode]entities.RateDetail `json:"details,omitempty"`
}

// SnapshotStore almacena RateSnapshot en cualquier interfaces.Cache
// usando la clave rates:<resource> y un TTL por clase de recurso.
type SnapshotStore struct {
	backend    interfaces.Cache
	latestTTL  time.Duration
	historyTTL time.Duration
	now        func() time.Time
}

// NewSnapshotStore crea el adaptador; historyTTL cero significa sin expiración
func NewSnapshotStore(backend interfaces.Cache, latestTTL, historyTTL time.Duration) *SnapshotStore {
	return &SnapshotStore{
		backend:    backend,
		latestTTL:  latestTTL,
		historyTTL: historyTTL,
		now:        time.Now,
	}
}

func (s *SnapshotStore) key(id entities.ResourceID) string {
	return snapshotKeyPrefix + id.String()
}

// TTL devuelve la política de expiración del recurso
func (s *SnapshotStore) TTL(id entities.ResourceID) time.Duration {
	if id.IsHistorical() {
		return s.historyTTL
	}
	return s.latestTTL
}

// Get devuelve el snapshot si existe y sigue vigente
func (s *SnapshotStore) Get(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, bool) {
	raw, err := s.backend.Get(ctx, s.key(id))
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logging.WarnWithError(ctx, "Discarding undecodable cache entry", err, logging.Fields{
			logging.FieldCacheKey: s.key(id),
		})
		_ = s.backend.Delete(ctx, s.key(id))
		return nil, false
	}

	if !s.isValid(entry, s.TTL(id)) {
		return nil, false
	}

	p := entry.Payload
	return entities.NewRateSnapshot(p.RetrievedAt, p.Source, p.UpdateTime, p.Rates, p.Details), true
}

// Set reemplaza la entrada completa del recurso
func (s *SnapshotStore) Set(ctx context.Context, id entities.ResourceID, snapshot *entities.RateSnapshot) error {
	if snapshot == nil {
		return entities.ErrSnapshotRequired
	}

	entry := CacheEntry{
		Key: s.key(id),
		Payload: snapshotRecord{
			RetrievedAt: snapshot.RetrievedAt(),
			Source:      snapshot.Source(),
			UpdateTime:  snapshot.UpdateTime(),
			Rates:       snapshot.Rates(),
			Details:     snapshot.Details(),
		},
		CachedAt: s.now(),
	}

	bytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", entry.Key, err)
	}
	return s.backend.Set(ctx, entry.Key, string(bytes), s.TTL(id))
}

// Clear vacía el backend
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

func (s *SnapshotStore) isValid(entry CacheEntry, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return !utils.IsTimestampStale(entry.CachedAt, s.now(), ttl)
}
