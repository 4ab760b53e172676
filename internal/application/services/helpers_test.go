package services

import (
	"context"
	"sync"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
)

// sampleSnapshot reproduce un payload típico: detalle para USD/JPY/EUR,
// sólo tasa simplificada para KRW y sin dato para VND
func sampleSnapshot() *entities.RateSnapshot {
	f := entities.Float
	rates := map[entities.CurrencyCode]*float64{
		entities.USD: f(30.97),
		entities.JPY: f(0.204),
		entities.KRW: f(0.0235),
		entities.EUR: f(35.2),
		entities.VND: nil,
	}
	details := map[entities.CurrencyCode]entities.RateDetail{
		entities.USD: {
			Name: "US Dollar",
			Spot: entities.Quote{Buy: f(30.87), Sell: f(30.97)},
			Cash: entities.Quote{Buy: f(30.6), Sell: f(31.44)},
		},
		entities.JPY: {
			Name: "Japanese Yen",
			Spot: entities.Quote{Buy: f(0.198), Sell: f(0.204)},
		},
		entities.EUR: {
			Name: "Euro",
			Spot: entities.Quote{Sell: f(0)},
		},
	}
	return entities.NewRateSnapshot(
		time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC),
		"Bank of Taiwan",
		"2025/11/20 16:00:00",
		rates,
		details,
	)
}

type fallbackEvent struct {
	currency  entities.CurrencyCode
	requested entities.RateType
	used      entities.RateType
}

// recordingObserver captura los eventos emitidos por los servicios
type recordingObserver struct {
	interfaces.NopObserver
	mu             sync.Mutex
	fallbacks      []fallbackEvent
	unavailable    []entities.CurrencyCode
	ranges         [][2]int
	recalculations int
	exceeded       []time.Duration
}

func (o *recordingObserver) RateFallback(_ context.Context, currency entities.CurrencyCode, requested, used entities.RateType, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, fallbackEvent{currency: currency, requested: requested, used: used})
}

func (o *recordingObserver) RateUnavailable(_ context.Context, currency entities.CurrencyCode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unavailable = append(o.unavailable, currency)
}

func (o *recordingObserver) RangeFetched(_ context.Context, requested, succeeded int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ranges = append(o.ranges, [2]int{requested, succeeded})
}

func (o *recordingObserver) RecalculationCompleted(context.Context, int, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recalculations++
}

func (o *recordingObserver) BudgetExceeded(_ context.Context, duration, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exceeded = append(o.exceeded, duration)
}

// recordingPresenter guarda cada lote de filas entregado
type recordingPresenter struct {
	mu      sync.Mutex
	batches [][]entities.FormattedRow
}

func (p *recordingPresenter) Present(_ context.Context, rows []entities.FormattedRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, rows)
}

func (p *recordingPresenter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func (p *recordingPresenter) last() []entities.FormattedRow {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.batches) == 0 {
		return nil
	}
	return p.batches[len(p.batches)-1]
}

// manualFrames encola el trabajo hasta que el test llama a Flush
type manualFrames struct {
	mu    sync.Mutex
	queue []*frameTask
}

type frameTask struct {
	work     func()
	canceled bool
}

func (f *manualFrames) Schedule(work func()) func() {
	task := &frameTask{work: work}
	f.mu.Lock()
	f.queue = append(f.queue, task)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		task.canceled = true
		f.mu.Unlock()
	}
}

// Flush ejecuta las tareas encoladas hasta ahora y devuelve cuántas corrieron
func (f *manualFrames) Flush() int {
	f.mu.Lock()
	tasks := f.queue
	f.queue = nil
	f.mu.Unlock()

	ran := 0
	for _, task := range tasks {
		f.mu.Lock()
		canceled := task.canceled
		f.mu.Unlock()
		if canceled {
			continue
		}
		task.work()
		ran++
	}
	return ran
}

// Pending cuenta las tareas encoladas que no fueron canceladas
func (f *manualFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, task := range f.queue {
		if !task.canceled {
			n++
		}
	}
	return n
}
