package cache

import (
	"context"
	"testing"
	"time"

	"ratewise-service/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshot() *entities.RateSnapshot {
	return entities.NewRateSnapshot(
		time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC),
		"Taiwan Bank",
		"2025/11/20 09:00:00",
		map[entities.CurrencyCode]*float64{
			entities.USD: entities.Float(30.97),
			entities.KRW: nil,
		},
		map[entities.CurrencyCode]entities.RateDetail{
			entities.JPY: {
				Name: "日圓",
				Spot: entities.Quote{Buy: entities.Float(0.2), Sell: entities.Float(0.204)},
			},
		},
	)
}

func newTestStore(clock *fakeClock) *SnapshotStore {
	store := NewSnapshotStore(newMemoryCache(clock.Now), DefaultLatestTTL, DefaultHistoryTTL)
	store.now = clock.Now
	return store
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, entities.LatestResource(), newTestSnapshot()))

	got, ok := store.Get(ctx, entities.LatestResource())
	require.True(t, ok)

	usd, ok := got.Rate(entities.USD)
	assert.True(t, ok)
	assert.Equal(t, 30.97, usd)

	_, ok = got.Rate(entities.KRW)
	assert.False(t, ok, "null rates must stay absent")

	jpy, ok := got.Detail(entities.JPY)
	require.True(t, ok)
	require.NotNil(t, jpy.Spot.Sell)
	assert.Equal(t, 0.204, *jpy.Spot.Sell)
	assert.Nil(t, jpy.Cash.Sell)
	assert.Equal(t, "Taiwan Bank", got.Source())
}

func TestSnapshotStore_TTLPolicy(t *testing.T) {
	historical := entities.HistoricalResource(time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name    string
		id      entities.ResourceID
		advance time.Duration
		wantHit bool
	}{
		// ===== LATEST: 5 MINUTOS =====
		{name: "latest within TTL", id: entities.LatestResource(), advance: 4*time.Minute + 59*time.Second, wantHit: true},
		{name: "latest at TTL boundary is stale", id: entities.LatestResource(), advance: 5 * time.Minute, wantHit: false},
		// ===== HISTÓRICOS: SIN EXPIRACIÓN =====
		{name: "historical after a year", id: historical, advance: 365 * 24 * time.Hour, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newTestStore(clock)
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, tt.id, newTestSnapshot()))
			clock.Advance(tt.advance)

			_, ok := store.Get(ctx, tt.id)
			assert.Equal(t, tt.wantHit, ok)
		})
	}
}

func TestSnapshotStore_KeysAreIsolatedPerResource(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	ctx := context.Background()
	day := entities.HistoricalResource(time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC))

	require.NoError(t, store.Set(ctx, day, newTestSnapshot()))

	_, ok := store.Get(ctx, entities.LatestResource())
	assert.False(t, ok)
	_, ok = store.Get(ctx, day)
	assert.True(t, ok)
	assert.Equal(t, "rates:2025-11-18", store.key(day))
}

func TestSnapshotStore_Clear(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(clock)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, entities.LatestResource(), newTestSnapshot()))
	require.NoError(t, store.Clear(ctx))

	_, ok := store.Get(ctx, entities.LatestResource())
	assert.False(t, ok)
}

func TestSnapshotStore_CorruptEntryIsDropped(t *testing.T) {
	clock := newFakeClock()
	backend := newMemoryCache(clock.Now)
	store := NewSnapshotStore(backend, DefaultLatestTTL, DefaultHistoryTTL)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "rates:latest", "{not json", 0))

	_, ok := store.Get(ctx, entities.LatestResource())
	assert.False(t, ok)
	assert.Equal(t, 0, backend.Size())
}

func TestSnapshotStore_SetNil(t *testing.T) {
	store := newTestStore(newFakeClock())

	err := store.Set(context.Background(), entities.LatestResource(), nil)
	assert.ErrorIs(t, err, entities.ErrSnapshotRequired)
}
