package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/application/services"
	"ratewise-service/internal/infrastructure/config"
	"ratewise-service/internal/infrastructure/ratelimit"
	"ratewise-service/internal/infrastructure/repositories/cache"
)

func TestFetchRange_DefaultLimiterKeepsRangeConcurrent(t *testing.T) {
	const roundTrip = 50 * time.Millisecond

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		time.Sleep(roundTrip)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(samplePayload))
		}
	}))
	defer server.Close()

	cfg := config.GetDefaultConfig()
	limit := cfg.Source.RateLimit
	require.True(t, limit.Enabled)

	transport := NewHTTPTransport(TransportOptions{
		Timeout:    cfg.Source.Timeout,
		MaxRetries: cfg.Source.MaxRetries,
		Limiter: ratelimit.NewMirrorLimiter(ratelimit.Config{
			Enabled:      limit.Enabled,
			Capacity:     limit.Capacity,
			RefillRate:   limit.RefillRate,
			RefillPeriod: limit.RefillPeriod,
		}),
	})
	// un solo host para que todos los días compartan el bucket; el probe duplica las peticiones
	mirrors := NewMirrorSet(nil, []string{server.URL + "/history/{date}.json"})
	store := cache.NewSnapshotStore(cache.NewMemoryCache(), cache.DefaultLatestTTL, cache.DefaultHistoryTTL)
	client := NewMirrorClient(transport, mirrors, store, WithProbe(true))

	history := services.NewHistoryService(client, services.HistoryOptions{
		MaxDays:        cfg.History.MaxDays,
		MaxConcurrency: cfg.History.MaxConcurrency,
		Now:            func() time.Time { return time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC) },
	})

	start := time.Now()
	days := history.FetchRange(context.Background(), cfg.History.MaxDays)
	elapsed := time.Since(start)

	require.Len(t, days, cfg.History.MaxDays)
	assert.Equal(t, int32(2*cfg.History.MaxDays), atomic.LoadInt32(&requests))
	// HEAD + GET en paralelo: dos viajes, lejos de los segundos que costaría esperar el refill
	assert.Less(t, elapsed, time.Second, "range took %v", elapsed)
}
