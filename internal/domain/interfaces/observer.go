package interfaces

import (
	"context"
	"time"

	"ratewise-service/internal/domain/entities"
)

// Observer recibe eventos de observabilidad del núcleo de tasas.
// Ninguna implementación puede bloquear ni devolver error al llamador.
type Observer interface {
	RateFallback(ctx context.Context, currency entities.CurrencyCode, requested, used entities.RateType, rate float64)
	RateUnavailable(ctx context.Context, currency entities.CurrencyCode)
	CacheHit(ctx context.Context, resource string)
	CacheMiss(ctx context.Context, resource string)
	MirrorFailed(ctx context.Context, resource, url string, statusCode int, err error)
	MirrorSucceeded(ctx context.Context, resource, url string, duration time.Duration)
	FetchFailed(ctx context.Context, resource string, urls []string)
	RangeFetched(ctx context.Context, requested, succeeded int, duration time.Duration)
	RecalculationCompleted(ctx context.Context, currencies int, duration time.Duration)
	BudgetExceeded(ctx context.Context, duration, budget time.Duration)
}

// NopObserver descarta todos los eventos
type NopObserver struct{}

func (NopObserver) RateFallback(context.Context, entities.CurrencyCode, entities.RateType, entities.RateType, float64) {
}
func (NopObserver) RateUnavailable(context.Context, entities.CurrencyCode) {}
func (NopObserver) CacheHit(context.Context, string) {}
func (NopObserver) CacheMiss(context.Context, string) {}
func (NopObserver) MirrorFailed(context.Context, string, string, int, error) {}
func (NopObserver) MirrorSucceeded(context.Context, string, string, time.Duration) {}
func (NopObserver) FetchFailed(context.Context, string, []string) {}
func (NopObserver) RangeFetched(context.Context, int, int, time.Duration) {}
func (NopObserver) RecalculationCompleted(context.Context, int, time.Duration) {}
func (NopObserver) BudgetExceeded(context.Context, time.Duration, time.Duration) {}
