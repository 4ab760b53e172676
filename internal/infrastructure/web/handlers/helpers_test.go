package handlers

import (
	"context"
	"sync"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/infrastructure/source"
)

func testSnapshot() *entities.RateSnapshot {
	f := entities.Float
	rates := map[entities.CurrencyCode]*float64{
		entities.USD: f(30.97),
		entities.JPY: f(0.204),
		entities.EUR: f(35.2),
		entities.VND: nil,
	}
	details := map[entities.CurrencyCode]entities.RateDetail{
		entities.USD: {
			Name: "US Dollar",
			Spot: entities.Quote{Buy: f(30.87), Sell: f(30.97)},
			Cash: entities.Quote{Buy: f(30.6), Sell: f(31.44)},
		},
		entities.JPY: {
			Name: "Japanese Yen",
			Spot: entities.Quote{Buy: f(0.198), Sell: f(0.204)},
		},
	}
	return entities.NewRateSnapshot(
		time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC),
		"Bank of Taiwan",
		"2025/11/20 16:00:00",
		rates,
		details,
	)
}

// fakeSource sirve snapshots por recurso; lo que no está responde 404 en todos los mirrors
type fakeSource struct {
	mu        sync.Mutex
	snapshots map[string]*entities.RateSnapshot
	err       error
	calls     int
}

func newFakeSource() *fakeSource {
	return &fakeSource{snapshots: map[string]*entities.RateSnapshot{
		entities.LatestResource().String(): testSnapshot(),
	}}
}

func (f *fakeSource) FetchResource(_ context.Context, id entities.ResourceID) (*entities.RateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.err != nil {
		return nil, f.err
	}
	snapshot, ok := f.snapshots[id.String()]
	if !ok {
		return nil, &source.FetchFailure{
			Resource: id.String(),
			URLs:     []string{"https://mirror.test/" + id.String() + ".json"},
			Causes:   []error{source.ErrNotFound},
		}
	}
	return snapshot, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeHistory devuelve siempre los mismos días y recuerda el pedido
type fakeHistory struct {
	mu        sync.Mutex
	days      []entities.HistoricalSnapshot
	maxDays   int
	requested []int
}

func (f *fakeHistory) FetchRange(_ context.Context, days int) []entities.HistoricalSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, days)
	if days < len(f.days) {
		return f.days[:days]
	}
	return f.days
}

func (f *fakeHistory) MaxDays() int {
	return f.maxDays
}

// fakeArchive implementa interfaces.SnapshotArchive
type fakeArchive struct {
	latest time.Time
	err    error
}

func (f *fakeArchive) Save(context.Context, entities.ResourceID, *entities.RateSnapshot) error {
	return nil
}

func (f *fakeArchive) LatestFetchedAt(context.Context) (time.Time, error) {
	return f.latest, f.err
}
