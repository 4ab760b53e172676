package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenBucket_Allow(t *testing.T) {
	tests := []struct {
		name         string
		capacity     int64
		refillRate   int64
		refillPeriod time.Duration
		requests     int
		expected     []bool
	}{
		{
			name:         "básico - bucket lleno permite requests hasta capacidad",
			capacity:     3,
			refillRate:   1,
			refillPeriod: time.Second,
			requests:     5,
			expected:     []bool{true, true, true, false, false},
		},
		{
			name:         "capacidad 1 - solo permite 1 request",
			capacity:     1,
			refillRate:   1,
			refillPeriod: time.Second,
			requests:     3,
			expected:     []bool{true, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			tb := newTokenBucket(tt.capacity, tt.refillRate, tt.refillPeriod, clock.Now)

			results := make([]bool, tt.requests)
			for i := 0; i < tt.requests; i++ {
				results[i] = tb.Allow()
			}

			assert.Equal(t, tt.expected, results)
		})
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	tb := newTokenBucket(2, 1, time.Second, clock.Now)

	require.True(t, tb.Allow())
	require.True(t, tb.Allow())
	require.False(t, tb.Allow())

	// Un período completo agrega refillRate tokens
	clock.Advance(time.Second)
	assert.Equal(t, int64(1), tb.Tokens())

	// Medio período no agrega nada
	require.True(t, tb.Allow())
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, int64(0), tb.Tokens())

	// Nunca supera la capacidad
	clock.Advance(time.Minute)
	assert.Equal(t, tb.Capacity(), tb.Tokens())
}

func TestTokenBucket_PartialPeriodsAccumulate(t *testing.T) {
	clock := newFakeClock()
	tb := newTokenBucket(1, 1, time.Second, clock.Now)
	require.True(t, tb.Allow())

	clock.Advance(600 * time.Millisecond)
	assert.False(t, tb.Allow())
	clock.Advance(600 * time.Millisecond)

	// 1.2s acumulados desde el último refill
	assert.True(t, tb.Allow())
}

func TestTokenBucket_Wait(t *testing.T) {
	t.Run("returns once a token is refilled", func(t *testing.T) {
		tb := NewTokenBucket(1, 1, 20*time.Millisecond)
		require.True(t, tb.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		start := time.Now()
		require.NoError(t, tb.Wait(ctx))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		tb := NewTokenBucket(1, 1, time.Hour)
		require.True(t, tb.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		assert.ErrorIs(t, tb.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("full bucket does not block", func(t *testing.T) {
		tb := NewTokenBucket(5, 1, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Allow se evalúa antes de mirar el contexto
		assert.NoError(t, tb.Wait(ctx))
	})
}
