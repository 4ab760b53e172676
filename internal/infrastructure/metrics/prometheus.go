package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the RateWise service
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Cache Metrics
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_cache_operations_total",
			Help: "Total number of snapshot cache operations",
		},
		[]string{"resource", "result"}, // result: hit/miss
	)

	// Mirror Metrics
	MirrorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_mirror_requests_total",
			Help: "Total number of requests sent to rate mirrors",
		},
		[]string{"host", "result"}, // result: success/not_found/error
	)

	MirrorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_mirror_request_duration_seconds",
			Help:    "Successful mirror request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"host"},
	)

	MirrorRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_mirror_retries_total",
			Help: "Total number of retry attempts against a single mirror",
		},
		[]string{"host", "attempt"},
	)

	MirrorThrottleWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratewise_mirror_throttle_wait_seconds",
			Help:    "Time a mirror request waited on the outbound rate limiter",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"host"},
	)

	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_fetch_failures_total",
			Help: "Resources for which every mirror failed",
		},
		[]string{"kind"}, // kind: latest/history
	)

	// Rates Metrics
	RateFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_rate_fallbacks_total",
			Help: "Resolutions that used the non-preferred rate type",
		},
		[]string{"currency", "requested", "used"},
	)

	RateUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_rate_unavailable_total",
			Help: "Resolutions with no usable rate",
		},
		[]string{"currency"},
	)

	HistoryDaysFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_history_days_fetched",
			Help:    "Number of days successfully returned per range request",
			Buckets: []float64{0, 1, 3, 7, 14, 30},
		},
	)

	HistoryRangeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_history_range_duration_seconds",
			Help:    "Wall time of a historical range fetch",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
	)

	// Recalculation Metrics
	RecalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratewise_recalculation_duration_seconds",
			Help:    "Duration of a batch recalculation pass",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RecalculationBudgetExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratewise_recalculation_budget_exceeded_total",
			Help: "Batch recalculations that exceeded the interaction budget",
		},
	)

	// Refresh Metrics
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratewise_refreshes_total",
			Help: "Total number of scheduled latest-rate refreshes",
		},
		[]string{"result"}, // result: success/error
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_snapshot_age_seconds",
			Help: "Age of the most recently published latest snapshot",
		},
	)

	// WebSocket Metrics
	ConverterSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_converter_sessions_active",
			Help: "Number of open converter websocket sessions",
		},
	)

	WebSocketMessageDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratewise_ws_message_drops_total",
			Help: "Total de filas descartadas por canal lleno",
		},
	)

	// Application Metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratewise_application_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)

	UptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratewise_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordCacheLookup records a snapshot cache hit or miss
func RecordCacheLookup(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheOperationsTotal.WithLabelValues(resourceKind(resource), result).Inc()
}

// RecordMirrorRequest records the outcome of a single mirror attempt
func RecordMirrorRequest(host, result string) {
	MirrorRequestsTotal.WithLabelValues(host, result).Inc()
}

// RecordMirrorDuration records a successful mirror request
func RecordMirrorDuration(host string, duration float64) {
	MirrorRequestDuration.WithLabelValues(host).Observe(duration)
}

// RecordMirrorRetry records a retry attempt against one mirror
func RecordMirrorRetry(host string, attempt int) {
	MirrorRetries.WithLabelValues(host, strconv.Itoa(attempt)).Inc()
}

// RecordMirrorThrottle records a wait imposed by the outbound rate limiter
func RecordMirrorThrottle(host string, wait float64) {
	MirrorThrottleWait.WithLabelValues(host).Observe(wait)
}

// RecordFetchFailure records a resource that exhausted every mirror
func RecordFetchFailure(resource string) {
	FetchFailuresTotal.WithLabelValues(resourceKind(resource)).Inc()
}

// RecordRateFallback records a resolution that used the other rate type
func RecordRateFallback(currency, requested, used string) {
	RateFallbacksTotal.WithLabelValues(currency, requested, used).Inc()
}

// RecordRateUnavailable records a resolution with no usable rate
func RecordRateUnavailable(currency string) {
	RateUnavailableTotal.WithLabelValues(currency).Inc()
}

// RecordHistoryRange records a completed range fetch
func RecordHistoryRange(fetched int, duration float64) {
	HistoryDaysFetched.Observe(float64(fetched))
	HistoryRangeDuration.Observe(duration)
}

// RecordRecalculation records a batch recalculation pass
func RecordRecalculation(duration float64) {
	RecalculationDuration.Observe(duration)
}

// RecordBudgetExceeded increments the budget warning counter
func RecordBudgetExceeded() {
	RecalculationBudgetExceeded.Inc()
}

// RecordRefresh records a scheduled refresh result
func RecordRefresh(success bool) {
	result := "error"
	if success {
		result = "success"
	}
	RefreshesTotal.WithLabelValues(result).Inc()
}

// UpdateSnapshotAge updates the latest snapshot age gauge
func UpdateSnapshotAge(ageSeconds float64) {
	SnapshotAge.Set(ageSeconds)
}

// ConverterSessionOpened increments the active session gauge
func ConverterSessionOpened() {
	ConverterSessionsActive.Inc()
}

// ConverterSessionClosed decrements the active session gauge
func ConverterSessionClosed() {
	ConverterSessionsActive.Dec()
}

// RecordWebSocketMessageDrop incrementa contador de descartes por canal lleno
func RecordWebSocketMessageDrop() {
	WebSocketMessageDrops.Inc()
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, goVersion string) {
	ApplicationInfo.WithLabelValues(version, goVersion).Set(1)
}

// UpdateUptime updates application uptime
func UpdateUptime(seconds float64) {
	UptimeSeconds.Set(seconds)
}

// resourceKind colapsa las fechas a "history" para evitar alta cardinalidad
func resourceKind(resource string) string {
	if resource == "latest" {
		return "latest"
	}
	return "history"
}
