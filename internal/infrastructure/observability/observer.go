package observability

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
)

// Observer traduce los eventos del núcleo de tasas a logs por dominio y métricas Prometheus
type Observer struct {
	mirror logging.MirrorLogger
	cache  logging.CacheLogger
	rates  logging.RatesLogger
}

var _ interfaces.Observer = (*Observer)(nil)

// NewObserver crea el observer a partir de un LoggerSet; nil usa los loggers globales
func NewObserver(loggers *logging.LoggerSet) *Observer {
	if loggers == nil {
		loggers = logging.GetGlobalLoggers()
	}
	return &Observer{
		mirror: loggers.Mirror,
		cache:  loggers.Cache,
		rates:  loggers.Rates,
	}
}

func (o *Observer) RateFallback(ctx context.Context, currency entities.CurrencyCode, requested, used entities.RateType, rate float64) {
	o.rates.RateFallback(ctx, currency.String(), requested.String(), used.String(), rate)
	metrics.RecordRateFallback(currency.String(), requested.String(), used.String())
}

func (o *Observer) RateUnavailable(ctx context.Context, currency entities.CurrencyCode) {
	o.rates.RateUnavailable(ctx, currency.String())
	metrics.RecordRateUnavailable(currency.String())
}

func (o *Observer) CacheHit(ctx context.Context, resource string) {
	o.cache.Hit(ctx, resource)
	metrics.RecordCacheLookup(resource, true)
}

func (o *Observer) CacheMiss(ctx context.Context, resource string) {
	o.cache.Miss(ctx, resource)
	metrics.RecordCacheLookup(resource, false)
}

func (o *Observer) MirrorFailed(ctx context.Context, resource, mirrorURL string, statusCode int, err error) {
	o.mirror.AttemptFailed(ctx, resource, mirrorURL, statusCode, err)

	result := "error"
	if statusCode == http.StatusNotFound {
		result = "not_found"
	}
	metrics.RecordMirrorRequest(hostOf(mirrorURL), result)
}

func (o *Observer) MirrorSucceeded(ctx context.Context, resource, mirrorURL string, duration time.Duration) {
	host := hostOf(mirrorURL)
	o.mirror.AttemptSucceeded(ctx, resource, mirrorURL, duration)
	metrics.RecordMirrorRequest(host, "success")
	metrics.RecordMirrorDuration(host, duration.Seconds())
}

func (o *Observer) FetchFailed(ctx context.Context, resource string, urls []string) {
	o.mirror.AllMirrorsFailed(ctx, resource, urls)
	metrics.RecordFetchFailure(resource)
}

func (o *Observer) RangeFetched(ctx context.Context, requested, succeeded int, duration time.Duration) {
	o.rates.RangeFetched(ctx, requested, succeeded, duration)
	metrics.RecordHistoryRange(succeeded, duration.Seconds())
}

func (o *Observer) RecalculationCompleted(ctx context.Context, currencies int, duration time.Duration) {
	o.rates.RecalculationCompleted(ctx, currencies, duration)
	metrics.RecordRecalculation(duration.Seconds())
}

func (o *Observer) BudgetExceeded(ctx context.Context, duration, budget time.Duration) {
	o.rates.BudgetExceeded(ctx, duration, budget)
	metrics.RecordBudgetExceeded()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
