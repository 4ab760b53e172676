package interfaces

import (
	"context"
	"time"

	"ratewise-service/internal/domain/entities"
)

// RateSource obtiene un recurso lógico de tasas (latest o una fecha histórica)
type RateSource interface {
	FetchResource(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error)
}

// RangeFetcher obtiene varios días consecutivos tolerando fallos parciales
type RangeFetcher interface {
	FetchRange(ctx context.Context, days int) []entities.HistoricalSnapshot
}

// SnapshotStore guarda snapshots por recurso respetando la política de TTL
type SnapshotStore interface {
	Get(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, bool)
	Set(ctx context.Context, id entities.ResourceID, snapshot *entities.RateSnapshot) error
	Clear(ctx context.Context) error
}

// SnapshotArchive persiste snapshots fuera del proceso
type SnapshotArchive interface {
	Save(ctx context.Context, id entities.ResourceID, snapshot *entities.RateSnapshot) error
	LatestFetchedAt(ctx context.Context) (time.Time, error)
}
