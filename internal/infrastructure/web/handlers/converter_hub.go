package handlers

import (
	"context"
	"sync"

	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/infrastructure/logging"
)

// ConverterHub registra las sesiones abiertas y les reparte cada snapshot nuevo
type ConverterHub struct {
	mu       sync.RWMutex
	sessions map[string]*services.ConverterSession
	closers  map[string]func()
	latest   *entities.RateSnapshot
}

// NewConverterHub crea un hub vacío
func NewConverterHub() *ConverterHub {
	return &ConverterHub{
		sessions: make(map[string]*services.ConverterSession),
		closers:  make(map[string]func()),
	}
}

// Publish guarda el snapshot y recalcula todas las sesiones
func (h *ConverterHub) Publish(ctx context.Context, snapshot *entities.RateSnapshot) {
	if snapshot == nil {
		return
	}

	h.mu.Lock()
	h.latest = snapshot
	sessions := make([]*services.ConverterSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.SetSnapshot(ctx, snapshot)
	}

	logging.Debug(ctx, "Snapshot published to converter sessions", logging.Fields{
		"sessions":    len(sessions),
		"update_time": snapshot.UpdateTime(),
	})
}

// Latest devuelve el último snapshot publicado
func (h *ConverterHub) Latest() (*entities.RateSnapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.latest != nil
}

// Count devuelve la cantidad de sesiones abiertas
func (h *ConverterHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown cierra las conexiones abiertas; http.Server.Shutdown no cierra
// las conexiones websocket porque ya fueron secuestradas
func (h *ConverterHub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	closers := make([]func(), 0, len(h.closers))
	for _, closeConn := range h.closers {
		closers = append(closers, closeConn)
	}
	h.mu.RUnlock()

	for _, closeConn := range closers {
		closeConn()
	}
	logging.Info(ctx, "Converter sessions closed for shutdown", logging.Fields{
		"sessions": len(closers),
	})
}

func (h *ConverterHub) register(s *services.ConverterSession, closeConn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID()] = s
	if closeConn != nil {
		h.closers[s.ID()] = closeConn
	}
}

func (h *ConverterHub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
	delete(h.closers, id)
}
