package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratewise-service/internal/domain/entities"
)

// countingBuilder registra cada edición procesada
type countingBuilder struct {
	mu     sync.Mutex
	edits  []entities.PendingRecalculation
	onEdit func(call int)
}

func (b *countingBuilder) BuildRows(_ context.Context, edit entities.PendingRecalculation) []entities.FormattedRow {
	b.mu.Lock()
	b.edits = append(b.edits, edit)
	call := len(b.edits)
	hook := b.onEdit
	b.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return []entities.FormattedRow{{Currency: edit.SourceCurrency, Amount: edit.SourceAmount, IsSource: true}}
}

func (b *countingBuilder) calls() []entities.PendingRecalculation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.PendingRecalculation, len(b.edits))
	copy(out, b.edits)
	return out
}

func TestRecalcScheduler_CoalescesBurstIntoOneFrame(t *testing.T) {
	frames := &manualFrames{}
	builder := &countingBuilder{}
	presenter := &recordingPresenter{}
	sched := NewRecalcScheduler(builder, presenter, SchedulerOptions{Frames: frames})
	ctx := context.Background()

	sched.Edit(ctx, entities.USD, "1")
	sched.Edit(ctx, entities.USD, "12")
	sched.Edit(ctx, entities.USD, "123")

	assert.Equal(t, RecalcPendingScheduled, sched.State())
	assert.Equal(t, 1, frames.Pending())
	assert.Empty(t, builder.calls())

	ran := frames.Flush()

	assert.Equal(t, 1, ran)
	assert.Equal(t, []entities.PendingRecalculation{{SourceCurrency: entities.USD, SourceAmount: "123"}}, builder.calls())
	assert.Equal(t, 1, presenter.count())
	assert.Equal(t, RecalcIdle, sched.State())
}

func TestRecalcScheduler_LastEditWinsAcrossCurrencies(t *testing.T) {
	frames := &manualFrames{}
	builder := &countingBuilder{}
	sched := NewRecalcScheduler(builder, &recordingPresenter{}, SchedulerOptions{Frames: frames})
	ctx := context.Background()

	sched.Edit(ctx, entities.USD, "10")
	sched.Edit(ctx, entities.JPY, "5000")
	frames.Flush()

	require.Len(t, builder.calls(), 1)
	assert.Equal(t, entities.JPY, builder.calls()[0].SourceCurrency)
}

func TestRecalcScheduler_SynchronousWithoutFrames(t *testing.T) {
	builder := &countingBuilder{}
	presenter := &recordingPresenter{}
	sched := NewRecalcScheduler(builder, presenter, SchedulerOptions{})
	ctx := context.Background()

	sched.Edit(ctx, entities.TWD, "1")
	sched.Edit(ctx, entities.TWD, "2")
	sched.Edit(ctx, entities.TWD, "3")

	assert.Len(t, builder.calls(), 3)
	assert.Equal(t, 3, presenter.count())
	assert.Equal(t, RecalcIdle, sched.State())
}

func TestRecalcScheduler_EditDuringExecutionSchedulesRerun(t *testing.T) {
	frames := &manualFrames{}
	builder := &countingBuilder{}
	sched := NewRecalcScheduler(builder, &recordingPresenter{}, SchedulerOptions{Frames: frames})
	ctx := context.Background()

	builder.onEdit = func(call int) {
		if call == 1 {
			// Llega una edición mientras la pasada está en curso
			assert.Equal(t, RecalcExecuting, sched.State())
			sched.Edit(ctx, entities.EUR, "99")
		}
	}

	sched.Edit(ctx, entities.EUR, "1")
	require.Equal(t, 1, frames.Flush())

	// La segunda pasada no corre dentro de la primera
	assert.Len(t, builder.calls(), 1)
	assert.Equal(t, RecalcPendingScheduled, sched.State())
	assert.Equal(t, 1, frames.Pending())

	require.Equal(t, 1, frames.Flush())
	calls := builder.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "99", calls[1].SourceAmount)
	assert.Equal(t, RecalcIdle, sched.State())
}

func TestRecalcScheduler_SynchronousRerunIsNotReentrant(t *testing.T) {
	builder := &countingBuilder{}
	sched := NewRecalcScheduler(builder, &recordingPresenter{}, SchedulerOptions{})
	ctx := context.Background()

	depth := 0
	builder.onEdit = func(call int) {
		depth++
		defer func() { depth-- }()
		assert.Equal(t, 1, depth)
		if call == 1 {
			sched.Edit(ctx, entities.USD, "2")
		}
	}

	sched.Edit(ctx, entities.USD, "1")

	assert.Len(t, builder.calls(), 2)
	assert.Equal(t, RecalcIdle, sched.State())
}

func TestRecalcScheduler_Cancel(t *testing.T) {
	frames := &manualFrames{}
	builder := &countingBuilder{}
	sched := NewRecalcScheduler(builder, &recordingPresenter{}, SchedulerOptions{Frames: frames})

	sched.Edit(context.Background(), entities.USD, "1")
	sched.Cancel()

	assert.Equal(t, 0, frames.Flush())
	assert.Empty(t, builder.calls())
	assert.Equal(t, RecalcIdle, sched.State())
}

func TestRecalcScheduler_StaleFrameIgnored(t *testing.T) {
	// Un scheduler que ignora el cancel no debe provocar dobles ejecuciones
	var works []func()
	frames := frameSchedulerFunc(func(work func()) func() {
		works = append(works, work)
		return func() {}
	})
	builder := &countingBuilder{}
	sched := NewRecalcScheduler(builder, &recordingPresenter{}, SchedulerOptions{Frames: frames})
	ctx := context.Background()

	sched.Edit(ctx, entities.USD, "1")
	sched.Edit(ctx, entities.USD, "2")
	require.Len(t, works, 2)

	works[0]()
	assert.Empty(t, builder.calls())

	works[1]()
	works[1]()
	assert.Len(t, builder.calls(), 1)
	assert.Equal(t, "2", builder.calls()[0].SourceAmount)
}

func TestRecalcScheduler_Budget(t *testing.T) {
	tests := []struct {
		name         string
		step         time.Duration
		budget       time.Duration
		wantExceeded int
	}{
		{name: "within budget", step: 10 * time.Millisecond, budget: 50 * time.Millisecond, wantExceeded: 0},
		{name: "over budget only reports", step: 60 * time.Millisecond, budget: 50 * time.Millisecond, wantExceeded: 1},
		{name: "default budget", step: 51 * time.Millisecond, wantExceeded: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
			now := func() time.Time {
				tick = tick.Add(tt.step)
				return tick
			}
			observer := &recordingObserver{}
			presenter := &recordingPresenter{}
			sched := NewRecalcScheduler(&countingBuilder{}, presenter, SchedulerOptions{
				Budget:   tt.budget,
				Observer: observer,
				Now:      now,
			})

			sched.Edit(context.Background(), entities.USD, "1")

			assert.Equal(t, 1, presenter.count(), "rows are delivered even when over budget")
			assert.Equal(t, 1, observer.recalculations)
			assert.Len(t, observer.exceeded, tt.wantExceeded)
		})
	}
}

func TestRecalcState_String(t *testing.T) {
	assert.Equal(t, "idle", RecalcIdle.String())
	assert.Equal(t, "pending_scheduled", RecalcPendingScheduled.String())
	assert.Equal(t, "executing", RecalcExecuting.String())
}

type frameSchedulerFunc func(work func()) func()

func (f frameSchedulerFunc) Schedule(work func()) func() {
	return f(work)
}
