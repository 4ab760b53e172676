package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/pkg/utils"
)

const (
	DefaultHistoryDays = 30 // Máximo de días consultables hacia atrás
)

// HistoryService agrega snapshots históricos de varios días consecutivos
type HistoryService struct {
	source         interfaces.RateSource
	observer       interfaces.Observer
	maxDays        int
	maxConcurrency int
	location       *time.Location
	now            func() time.Time
}

// HistoryOptions configura el agregador de rangos
type HistoryOptions struct {
	MaxDays        int
	MaxConcurrency int // 0 = sin límite
	Location       *time.Location
	Observer       interfaces.Observer
	Now            func() time.Time
}

// NewHistoryService crea el agregador sobre una fuente de tasas
func NewHistoryService(source interfaces.RateSource, opts HistoryOptions) *HistoryService {
	s := &HistoryService{
		source:         source,
		observer:       opts.Observer,
		maxDays:        opts.MaxDays,
		maxConcurrency: opts.MaxConcurrency,
		location:       opts.Location,
		now:            opts.Now,
	}
	if s.observer == nil {
		s.observer = interfaces.NopObserver{}
	}
	if s.maxDays <= 0 {
		s.maxDays = DefaultHistoryDays
	}
	if s.maxConcurrency < 0 {
		s.maxConcurrency = 0
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxDays devuelve el límite configurado
func (s *HistoryService) MaxDays() int {
	return s.maxDays
}

// Dates calcula las fechas a consultar, empezando por ayer (el archivo de hoy
// todavía no existe upstream) y en orden descendente.
func (s *HistoryService) Dates(days int) []time.Time {
	return utils.PreviousDays(s.now(), s.clamp(days), s.location)
}

// FetchRange descarga los días en paralelo y descarta los que fallan.
// El resultado conserva el orden más-reciente-primero y puede estar vacío.
func (s *HistoryService) FetchRange(ctx context.Context, days int) []entities.HistoricalSnapshot {
	start := time.Now()
	dates := s.Dates(days)
	if len(dates) == 0 {
		return []entities.HistoricalSnapshot{}
	}

	results := make([]*entities.RateSnapshot, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			id := entities.HistoricalResource(date)
			snapshot, err := s.source.FetchResource(gctx, id)
			if err != nil {
				// Un día faltante no invalida el rango
				logging.Debug(ctx, "Historical day skipped", logging.Fields{
					logging.FieldResource: id.String(),
					logging.FieldError:    err.Error(),
				})
				return nil
			}
			results[i] = snapshot
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entities.HistoricalSnapshot, 0, len(dates))
	for i, snapshot := range results {
		if snapshot == nil {
			continue
		}
		out = append(out, entities.HistoricalSnapshot{Date: dates[i], Snapshot: snapshot})
	}

	s.observer.RangeFetched(ctx, len(dates), len(out), time.Since(start))
	return out
}

func (s *HistoryService) clamp(days int) int {
	if days < 0 {
		return 0
	}
	if days > s.maxDays {
		return s.maxDays
	}
	return days
}
