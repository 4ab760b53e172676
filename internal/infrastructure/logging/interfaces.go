package logging

import (
	"context"
	"time"
)

// Logger define la interfaz principal para logging estructurado
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger representa loggers especializados por dominio
type DomainLogger interface {
	Logger
	Domain() string
}

// HTTPLogger especializado para logs relacionados con HTTP
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// MirrorLogger registra cada intento contra los mirrors de la fuente de tasas
type MirrorLogger interface {
	DomainLogger

	AttemptStarted(ctx context.Context, resource, url string, index, total int)
	AttemptFailed(ctx context.Context, resource, url string, statusCode int, err error)
	AttemptSucceeded(ctx context.Context, resource, url string, duration time.Duration)
	AllMirrorsFailed(ctx context.Context, resource string, urls []string)
}

// CacheLogger especializado para logs relacionados con cache
type CacheLogger interface {
	DomainLogger

	Hit(ctx context.Context, key string)
	Miss(ctx context.Context, key string)
	Set(ctx context.Context, key string, ttl time.Duration)
	Cleared(ctx context.Context)
	CacheError(ctx context.Context, operation, key string, err error)
}

// RatesLogger especializado para el motor de resolución y el recálculo
type RatesLogger interface {
	DomainLogger

	RateFallback(ctx context.Context, currency, requested, used string, rate float64)
	RateUnavailable(ctx context.Context, currency string)
	RangeFetched(ctx context.Context, requested, fetched int, duration time.Duration)
	RecalculationCompleted(ctx context.Context, currencies int, duration time.Duration)
	BudgetExceeded(ctx context.Context, duration, budget time.Duration)
}
