package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
)

const (
	// Límites por host de mirror
	DefaultCapacity     = 60
	DefaultRefillRate   = 5
	DefaultRefillPeriod = time.Second

	cleanupInterval   = 10 * time.Minute
	bucketIdleTimeout = 30 * time.Minute
	slowWaitThreshold = 10 * time.Millisecond
)

// Config representa la configuración del limitador de mirrors
type Config struct {
	Enabled      bool
	Capacity     int64
	RefillRate   int64
	RefillPeriod time.Duration
}

// MirrorLimiter limita las peticiones salientes con un token bucket por host
type MirrorLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*TokenBucket
	config      Config
	lastCleanup time.Time
	now         func() time.Time
}

// NewMirrorLimiter crea el limitador; los valores cero toman los defaults
func NewMirrorLimiter(config Config) *MirrorLimiter {
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.RefillRate <= 0 {
		config.RefillRate = DefaultRefillRate
	}
	if config.RefillPeriod <= 0 {
		config.RefillPeriod = DefaultRefillPeriod
	}

	limiter := &MirrorLimiter{
		buckets:     make(map[string]*TokenBucket),
		config:      config,
		lastCleanup: time.Now(),
		now:         time.Now,
	}

	logging.Info(context.Background(), "Mirror rate limiter initialized", logging.Fields{
		"enabled":       config.Enabled,
		"capacity":      config.Capacity,
		"refill_rate":   config.RefillRate,
		"refill_period": config.RefillPeriod.String(),
	})
	return limiter
}

// Wait espera un token del host de rawURL; deshabilitado nunca bloquea
func (l *MirrorLimiter) Wait(ctx context.Context, rawURL string) error {
	if !l.config.Enabled {
		return nil
	}

	host := hostOf(rawURL)
	start := l.now()
	if err := l.bucket(host).Wait(ctx); err != nil {
		return err
	}

	if waited := l.now().Sub(start); waited > slowWaitThreshold {
		metrics.RecordMirrorThrottle(host, waited.Seconds())
		logging.Debug(ctx, "Rate limiter caused mirror request delay", logging.Fields{
			"host":                host,
			logging.FieldDuration: float64(waited.Nanoseconds()) / 1e6,
		})
	}
	return nil
}

// Enabled retorna si el limitador está habilitado
func (l *MirrorLimiter) Enabled() bool {
	return l.config.Enabled
}

// Hosts devuelve la cantidad de hosts con bucket activo
func (l *MirrorLimiter) Hosts() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// bucket obtiene o crea el bucket del host
func (l *MirrorLimiter) bucket(host string) *TokenBucket {
	l.mu.RLock()
	bucket, exists := l.buckets[host]
	l.mu.RUnlock()

	if exists {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// otra goroutine pudo crearlo entre ambos locks
	if bucket, exists := l.buckets[host]; exists {
		return bucket
	}

	bucket = newTokenBucket(l.config.Capacity, l.config.RefillRate, l.config.RefillPeriod, l.now)
	l.buckets[host] = bucket
	l.maybeCleanup()
	return bucket
}

// maybeCleanup elimina buckets llenos sin uso reciente
// DEBE ser llamado con el write lock tomado
func (l *MirrorLimiter) maybeCleanup() {
	now := l.now()
	if now.Sub(l.lastCleanup) < cleanupInterval {
		return
	}

	cutoff := now.Add(-bucketIdleTimeout)
	for host, bucket := range l.buckets {
		if bucket.idleSince(cutoff) {
			delete(l.buckets, host)
		}
	}
	l.lastCleanup = now
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}
