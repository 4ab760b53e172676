package logging

import (
	"context"
	"net/http"
	"time"
)

// BaseDomainLogger implementa funcionalidad común para loggers de dominio
type BaseDomainLogger struct {
	Logger
	domain string
}

// Domain retorna el dominio del logger
func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

// logWithDomain agrega el campo de dominio a los logs
func (dl *BaseDomainLogger) logWithDomain(ctx context.Context, level LogLevel, message string, fields Fields) {
	if fields == nil {
		fields = make(Fields)
	}
	fields[FieldDomain] = dl.domain

	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelInfo:
		dl.Logger.Info(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	}
}

func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, withError(fields, err))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, withError(fields, err))
}

func newBase(baseLogger Logger, domain string) *BaseDomainLogger {
	return &BaseDomainLogger{Logger: baseLogger, domain: domain}
}

// HTTPDomainLogger especializado para logs HTTP
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

// NewHTTPLogger crea un nuevo logger HTTP
func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{BaseDomainLogger: newBase(baseLogger, "http")}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, 0).
		WithCustomField(FieldHTTPUserAgent, userAgent).
		WithCustomField(FieldHTTPRemoteIP, remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithDuration(duration).
		Build()

	level := LevelInfo
	if statusCode >= 500 {
		level = LevelError
	} else if statusCode >= 400 {
		level = LevelWarn
	}

	hl.logWithDomain(ctx, level, "HTTP request completed", fields)
}

// MirrorDomainLogger especializado para los mirrors de tasas
type MirrorDomainLogger struct {
	*BaseDomainLogger
}

// NewMirrorLogger crea un nuevo logger de mirrors
func NewMirrorLogger(baseLogger Logger) MirrorLogger {
	return &MirrorDomainLogger{BaseDomainLogger: newBase(baseLogger, "mirror")}
}

func (ml *MirrorDomainLogger) AttemptStarted(ctx context.Context, resource, url string, index, total int) {
	fields := NewFieldBuilder().
		WithMirror(resource, url).
		WithCustomField(FieldMirrorIndex, index+1).
		WithCustomField(FieldMirrorCount, total).
		Build()

	ml.Debug(ctx, "Trying rate mirror", fields)
}

// AttemptFailed usa DEBUG para 404 (día aún no publicado) y WARN para el resto; nunca ERROR
func (ml *MirrorDomainLogger) AttemptFailed(ctx context.Context, resource, url string, statusCode int, err error) {
	fields := NewFieldBuilder().
		WithMirror(resource, url).
		WithError(err).
		Build()
	if statusCode > 0 {
		fields[FieldStatusCode] = statusCode
	}

	if statusCode == http.StatusNotFound {
		ml.Debug(ctx, "Rate mirror returned not found", fields)
		return
	}
	ml.Warn(ctx, "Rate mirror failed, trying next", fields)
}

func (ml *MirrorDomainLogger) AttemptSucceeded(ctx context.Context, resource, url string, duration time.Duration) {
	fields := NewFieldBuilder().
		WithMirror(resource, url).
		WithDuration(duration).
		Build()

	ml.Debug(ctx, "Rate mirror succeeded", fields)
}

func (ml *MirrorDomainLogger) AllMirrorsFailed(ctx context.Context, resource string, urls []string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldResource, resource).
		WithCustomField(FieldAttemptedURL, urls).
		Build()

	ml.Error(ctx, "All rate mirrors failed", fields)
}

// CacheDomainLogger especializado para cache
type CacheDomainLogger struct {
	*BaseDomainLogger
}

// NewCacheLogger crea un nuevo logger de cache
func NewCacheLogger(baseLogger Logger) CacheLogger {
	return &CacheDomainLogger{BaseDomainLogger: newBase(baseLogger, "cache")}
}

func (cl *CacheDomainLogger) Hit(ctx context.Context, key string) {
	cl.Debug(ctx, "Cache hit", NewFieldBuilder().WithCache(CacheOpGet, key, true).Build())
}

func (cl *CacheDomainLogger) Miss(ctx context.Context, key string) {
	cl.Debug(ctx, "Cache miss", NewFieldBuilder().WithCache(CacheOpGet, key, false).Build())
}

func (cl *CacheDomainLogger) Set(ctx context.Context, key string, ttl time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheOperation, CacheOpSet).
		WithCustomField(FieldCacheTTL, ttl.Seconds()).
		Build()

	cl.Debug(ctx, "Cache set", fields)
}

func (cl *CacheDomainLogger) Cleared(ctx context.Context) {
	cl.Info(ctx, "Cache cleared", Fields{FieldCacheOperation: CacheOpClear})
}

func (cl *CacheDomainLogger) CacheError(ctx context.Context, operation, key string, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheOperation, operation).
		WithCustomField(FieldCacheKey, key).
		Build()

	cl.WarnWithError(ctx, "Cache operation failed", err, fields)
}

// RatesDomainLogger especializado para resolución de tasas y recálculo
type RatesDomainLogger struct {
	*BaseDomainLogger
}

// NewRatesLogger crea un nuevo logger del dominio de tasas
func NewRatesLogger(baseLogger Logger) RatesLogger {
	return &RatesDomainLogger{BaseDomainLogger: newBase(baseLogger, "rates")}
}

func (rl *RatesDomainLogger) RateFallback(ctx context.Context, currency, requested, used string, rate float64) {
	fields := NewFieldBuilder().
		WithCurrency(currency, requested).
		WithCustomField(FieldFallbackType, used).
		WithCustomField(FieldRate, rate).
		Build()

	rl.Debug(ctx, "Exchange rate fallback", fields)
}

func (rl *RatesDomainLogger) RateUnavailable(ctx context.Context, currency string) {
	rl.Debug(ctx, "Exchange rate unavailable", NewFieldBuilder().WithCurrency(currency, "").Build())
}

func (rl *RatesDomainLogger) RangeFetched(ctx context.Context, requested, fetched int, duration time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldDaysRequested, requested).
		WithCustomField(FieldDaysFetched, fetched).
		WithDuration(duration).
		Build()

	rl.Info(ctx, "Historical range fetched", fields)
}

func (rl *RatesDomainLogger) RecalculationCompleted(ctx context.Context, currencies int, duration time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCurrencies, currencies).
		WithDuration(duration).
		Build()

	rl.Debug(ctx, "Batch recalculation completed", fields)
}

// BudgetExceeded es sólo una advertencia; el recálculo ya terminó
func (rl *RatesDomainLogger) BudgetExceeded(ctx context.Context, duration, budget time.Duration) {
	fields := NewFieldBuilder().
		WithDuration(duration).
		WithCustomField(FieldBudgetMs, durationMs(budget)).
		Build()

	rl.Warn(ctx, "Batch recalculation exceeded interaction budget", fields)
}
