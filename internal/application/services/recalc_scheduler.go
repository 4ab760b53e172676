package services

import (
	"context"
	"sync"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
)

const (
	DefaultRecalcBudget = 50 * time.Millisecond
)

// RecalcState es el estado del scheduler de recálculo
type RecalcState int

const (
	RecalcIdle RecalcState = iota
	RecalcPendingScheduled
	RecalcExecuting
)

func (s RecalcState) String() string {
	switch s {
	case RecalcPendingScheduled:
		return "pending_scheduled"
	case RecalcExecuting:
		return "executing"
	default:
		return "idle"
	}
}

// RowBuilder calcula las filas formateadas para una edición
type RowBuilder interface {
	BuildRows(ctx context.Context, edit entities.PendingRecalculation) []entities.FormattedRow
}

// RowBuilderFunc adapta una función a RowBuilder
type RowBuilderFunc func(ctx context.Context, edit entities.PendingRecalculation) []entities.FormattedRow

func (f RowBuilderFunc) BuildRows(ctx context.Context, edit entities.PendingRecalculation) []entities.FormattedRow {
	return f(ctx, edit)
}

// SchedulerOptions configura el RecalcScheduler
type SchedulerOptions struct {
	Frames   interfaces.FrameScheduler // nil = ejecución síncrona
	Budget   time.Duration
	Observer interfaces.Observer
	Now      func() time.Time
}

// RecalcScheduler agrupa ráfagas de ediciones en un único recálculo por frame.
// Sólo se conserva la última edición pendiente y nunca hay dos ejecuciones a la vez.
type RecalcScheduler struct {
	mu         sync.Mutex
	state      RecalcState
	pending    *entities.PendingRecalculation
	pendingCtx context.Context
	rerun      bool
	generation uint64
	cancel     func()

	builder   RowBuilder
	presenter interfaces.Presenter
	frames    interfaces.FrameScheduler
	observer  interfaces.Observer
	budget    time.Duration
	now       func() time.Time
}

// NewRecalcScheduler crea el scheduler
func NewRecalcScheduler(builder RowBuilder, presenter interfaces.Presenter, opts SchedulerOptions) *RecalcScheduler {
	s := &RecalcScheduler{
		builder:   builder,
		presenter: presenter,
		frames:    opts.Frames,
		observer:  opts.Observer,
		budget:    opts.Budget,
		now:       opts.Now,
	}
	if s.frames == nil {
		s.frames = immediateFrames{}
	}
	if s.observer == nil {
		s.observer = interfaces.NopObserver{}
	}
	if s.budget <= 0 {
		s.budget = DefaultRecalcBudget
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// State devuelve el estado actual
func (s *RecalcScheduler) State() RecalcState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Edit registra la última edición y agenda el recálculo para el próximo frame
func (s *RecalcScheduler) Edit(ctx context.Context, source entities.CurrencyCode, amount string) {
	s.mu.Lock()
	s.pending = &entities.PendingRecalculation{SourceCurrency: source, SourceAmount: amount}
	s.pendingCtx = ctx

	if s.state == RecalcExecuting {
		s.rerun = true
		s.mu.Unlock()
		return
	}

	previous := s.cancel
	s.cancel = nil
	s.state = RecalcPendingScheduled
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if previous != nil {
		previous()
	}
	s.schedule(gen)
}

// Cancel descarta la edición pendiente, si la hay
func (s *RecalcScheduler) Cancel() {
	s.mu.Lock()
	previous := s.cancel
	s.cancel = nil
	s.pending = nil
	s.rerun = false
	if s.state == RecalcPendingScheduled {
		s.state = RecalcIdle
		s.generation++
	}
	s.mu.Unlock()

	if previous != nil {
		previous()
	}
}

func (s *RecalcScheduler) schedule(gen uint64) {
	cancel := s.frames.Schedule(func() { s.onFrame(gen) })

	s.mu.Lock()
	// Con un scheduler síncrono el trabajo ya corrió y el cancel no sirve
	if s.generation == gen && s.state == RecalcPendingScheduled {
		s.cancel = cancel
	}
	s.mu.Unlock()
}

func (s *RecalcScheduler) onFrame(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != RecalcPendingScheduled || s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.state = RecalcExecuting
	s.cancel = nil
	edit := *s.pending
	ctx := s.pendingCtx
	s.pending = nil
	s.mu.Unlock()

	s.execute(ctx, edit)

	s.mu.Lock()
	if s.rerun && s.pending != nil {
		s.rerun = false
		s.state = RecalcPendingScheduled
		s.generation++
		next := s.generation
		s.mu.Unlock()
		s.schedule(next)
		return
	}
	s.rerun = false
	s.state = RecalcIdle
	s.mu.Unlock()
}

func (s *RecalcScheduler) execute(ctx context.Context, edit entities.PendingRecalculation) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()
	rows := s.builder.BuildRows(ctx, edit)
	s.presenter.Present(ctx, rows)
	elapsed := s.now().Sub(start)

	s.observer.RecalculationCompleted(ctx, len(rows), elapsed)
	if elapsed > s.budget {
		s.observer.BudgetExceeded(ctx, elapsed, s.budget)
	}
}

// immediateFrames ejecuta el trabajo en el acto
type immediateFrames struct{}

func (immediateFrames) Schedule(work func()) func() {
	work()
	return func() {}
}
