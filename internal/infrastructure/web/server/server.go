package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
	"ratewise-service/internal/infrastructure/web/handlers"
	"ratewise-service/internal/infrastructure/web/middleware"
)

// Handlers agrupa los handlers HTTP expuestos por el servidor
type Handlers struct {
	Rates     *handlers.RatesHandler
	Health    *handlers.HealthHandler
	Converter *handlers.ConverterHandler
}

// NewRouter registra las rutas y aplica los middlewares
func NewRouter(h Handlers) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.Health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	// latest y history antes que {date}
	api.HandleFunc("/rates/latest", h.Rates.GetLatest).Methods(http.MethodGet)
	api.HandleFunc("/rates/history", h.Rates.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/rates/{date}", h.Rates.GetResource).Methods(http.MethodGet)
	api.HandleFunc("/convert", h.Rates.Convert).Methods(http.MethodGet)
	api.HandleFunc("/currencies", h.Rates.GetCurrencies).Methods(http.MethodGet)

	if h.Converter != nil {
		router.HandleFunc("/ws/converter", h.Converter.Converter).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	handler = middleware.LoggingMiddleware(handler)
	handler = metrics.HTTPMetricsMiddleware(handler)
	handler = middleware.RequestTracingMiddleware(handler)
	return handler
}

// Server encapsulates HTTP server configuration
type Server struct {
	httpServer *http.Server
	host       string
	port       int
}

// NewServer creates a new server instance
func NewServer(handler http.Handler, host string, port int) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		host: host,
		port: port,
	}
}

// Start starts the HTTP server; devuelve http.ErrServerClosed tras Stop
func (s *Server) Start() error {
	ctx := context.Background()

	logging.Info(ctx, "HTTP server starting", logging.Fields{
		"host": s.host,
		"port": s.port,
	})

	base := fmt.Sprintf("http://%s", s.httpServer.Addr)
	logging.Info(ctx, "Available endpoints", logging.Fields{
		"endpoints": []string{
			"GET  " + base + "/health",
			"GET  " + base + "/ready",
			"GET  " + base + "/metrics",
			"GET  " + base + "/api/v1/rates/latest",
			"GET  " + base + "/api/v1/rates/2025-11-19",
			"GET  " + base + "/api/v1/rates/history?days=7",
			"GET  " + base + "/api/v1/convert?amount=1000&from=TWD&to=USD",
			"GET  " + base + "/api/v1/currencies",
			"WS   " + base + "/ws/converter",
		},
	})

	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
// Las conexiones websocket secuestradas no las cierra Shutdown.
func (s *Server) Stop(ctx context.Context) error {
	logging.Info(ctx, "Stopping HTTP server gracefully", logging.Fields{
		"port": s.port,
	})

	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
