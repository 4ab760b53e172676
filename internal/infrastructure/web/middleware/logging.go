package middleware

import (
	"net/http"

	"ratewise-service/internal/infrastructure/logging"
)

// importantHeaders son los headers que se registran en debug; nunca credenciales
var importantHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Cache-Control",
	"Upgrade",
	"Origin",
}

// LoggingMiddleware registra la llegada de cada request.
// RequestTracingMiddleware se encarga del log de finalización.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), getRemoteIP(r))

		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			"headers": extractImportantHeaders(r),
			"query":   r.URL.RawQuery,
		})

		next.ServeHTTP(w, r)
	})
}

// extractImportantHeaders extracts relevant headers for logging
func extractImportantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)

	for _, header := range importantHeaders {
		if value := r.Header.Get(header); value != "" {
			headers[header] = value
		}
	}

	return headers
}
