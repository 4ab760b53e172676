package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ratewise-service/internal/application/dto"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/metrics"
	"ratewise-service/internal/infrastructure/repositories/postgres"
	"ratewise-service/pkg/utils"
)

// LatestProvider devuelve el último snapshot conocido por el proceso
type LatestProvider interface {
	Latest() (*entities.RateSnapshot, bool)
}

// HealthHandler maneja los endpoints de health check
type HealthHandler struct {
	latest  LatestProvider
	archive interfaces.SnapshotArchive
	now     func() time.Time
}

// NewHealthHandler crea una nueva instancia del health handler; archive puede ser nil
func NewHealthHandler(latest LatestProvider, archive interfaces.SnapshotArchive) *HealthHandler {
	return &HealthHandler{
		latest:  latest,
		archive: archive,
		now:     time.Now,
	}
}

// Health verifica que el proceso responde, sin tocar dependencias
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"service": "running",
	}

	response := dto.NewHealthResponse("healthy", services)
	h.writeJSONResponse(w, http.StatusOK, response)
}

// Ready verifica que hay tasas cargadas y, si está habilitado, que el archivo responde
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	services := make(map[string]string)

	age, ok := h.RecordSnapshotAge()
	if !ok {
		services["rates"] = "not loaded"
		response := dto.NewHealthResponse("unhealthy", services)
		h.writeJSONResponse(w, http.StatusServiceUnavailable, response)
		return
	}
	services["rates"] = "loaded, age " + age.String()

	if h.archive != nil {
		status, healthy := h.checkArchive(ctx)
		services["archive"] = status
		if !healthy {
			response := dto.NewHealthResponse("unhealthy", services)
			h.writeJSONResponse(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	services["service"] = "ready"

	response := dto.NewHealthResponse("ready", services)
	h.writeJSONResponse(w, http.StatusOK, response)
}

// RecordSnapshotAge calcula la antigüedad del último snapshot y actualiza el gauge
func (h *HealthHandler) RecordSnapshotAge() (time.Duration, bool) {
	snapshot, ok := h.latest.Latest()
	if !ok {
		return 0, false
	}
	age := utils.Age(snapshot.RetrievedAt(), h.now())
	metrics.UpdateSnapshotAge(age.Seconds())
	return age, true
}

func (h *HealthHandler) checkArchive(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := h.archive.LatestFetchedAt(ctx)
	switch {
	case err == nil:
		return "ready", true
	case errors.Is(err, postgres.ErrNoSnapshots):
		return "empty", true
	default:
		return "error: " + err.Error(), false
	}
}

// writeJSONResponse escribe una respuesta JSON
func (h *HealthHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		_, _ = w.Write([]byte(`{"error":"ENCODING_ERROR","message":"Failed to encode response"}`))
	}
}
