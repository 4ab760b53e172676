package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pollInterval es la espera máxima entre intentos de Wait
const pollInterval = 100 * time.Millisecond

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int64         // Máximo número de tokens en el bucket
	tokens       int64         // Tokens actuales en el bucket
	refillRate   int64         // Tokens agregados por refill interval
	refillPeriod time.Duration // Intervalo entre refills
	lastRefill   time.Time     // Última vez que se rellenaron los tokens
	lastUsed     time.Time
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket crea un nuevo token bucket rate limiter
func NewTokenBucket(capacity int64, refillRate int64, refillPeriod time.Duration) *TokenBucket {
	return newTokenBucket(capacity, refillRate, refillPeriod, time.Now)
}

func newTokenBucket(capacity int64, refillRate int64, refillPeriod time.Duration, now func() time.Time) *TokenBucket {
	start := now()
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity, // Empezar con el bucket lleno
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		lastRefill:   start,
		lastUsed:     start,
		now:          now,
	}
}

// Allow intenta consumir un token del bucket
// Retorna true si el token fue otorgado, false si no hay tokens disponibles
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	tb.lastUsed = tb.now()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait bloquea hasta obtener un token o hasta que ctx se cancele
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		timer := time.NewTimer(tb.untilNextToken())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// untilNextToken estima la espera hasta el próximo refill, acotada a pollInterval
func (tb *TokenBucket) untilNextToken() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	wait := tb.refillPeriod - tb.now().Sub(tb.lastRefill)
	if wait <= 0 || wait > pollInterval {
		return pollInterval
	}
	return wait
}

// refill agrega tokens al bucket basado en el tiempo transcurrido
// DEBE ser llamado con el mutex locked
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)

	if elapsed < tb.refillPeriod {
		return
	}

	intervals := elapsed / tb.refillPeriod
	tokensToAdd := int64(intervals) * tb.refillRate

	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = tb.lastRefill.Add(intervals * tb.refillPeriod)
	}
}

// Tokens retorna el número actual de tokens disponibles
func (tb *TokenBucket) Tokens() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// Capacity retorna la capacidad máxima del bucket
func (tb *TokenBucket) Capacity() int64 {
	return tb.capacity
}

// idleSince indica si el bucket está lleno y sin uso desde cutoff
func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens == tb.capacity && tb.lastUsed.Before(cutoff)
}
