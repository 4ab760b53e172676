package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
)

const (
	DefaultSpec = "@every 5m"
)

var ErrJobRunning = errors.New("refresh job already running")

// Refresher descarga un recurso ignorando el cache
type Refresher interface {
	Refresh(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error)
}

// Publisher recibe cada snapshot nuevo de "latest"
type Publisher interface {
	Publish(ctx context.Context, snapshot *entities.RateSnapshot)
}

// PublisherFunc adapta una función a Publisher
type PublisherFunc func(ctx context.Context, snapshot *entities.RateSnapshot)

func (f PublisherFunc) Publish(ctx context.Context, snapshot *entities.RateSnapshot) {
	f(ctx, snapshot)
}

// Options configura el job de refresco
type Options struct {
	Spec      string
	Location  *time.Location
	Publisher Publisher
	Archive   interfaces.SnapshotArchive // opcional
}

// Job refresca "latest" periódicamente con robfig/cron
type Job struct {
	source    Refresher
	publisher Publisher
	archive   interfaces.SnapshotArchive
	spec      string
	scheduler *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewJob valida la expresión cron y prepara el scheduler
func NewJob(source Refresher, opts Options) (*Job, error) {
	spec := opts.Spec
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh spec %q: %w", spec, err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Job{
		source:    source,
		publisher: opts.Publisher,
		archive:   opts.Archive,
		spec:      spec,
		scheduler: cron.New(cron.WithLocation(loc)),
	}, nil
}

// RunOnce refresca "latest", lo publica y lo archiva
func (j *Job) RunOnce(ctx context.Context) error {
	start := time.Now()
	id := entities.LatestResource()

	snapshot, err := j.source.Refresh(ctx, id)
	if err != nil {
		metrics.RecordRefresh(false)
		logging.WarnWithError(ctx, "Scheduled rate refresh failed", err, logging.Fields{
			logging.FieldResource: id.String(),
			logging.FieldDuration: float64(time.Since(start).Nanoseconds()) / 1e6,
		})
		return fmt.Errorf("failed to refresh latest rates: %w", err)
	}

	metrics.RecordRefresh(true)

	if j.publisher != nil {
		j.publisher.Publish(ctx, snapshot)
	}

	if j.archive != nil {
		if err := j.archive.Save(ctx, id, snapshot); err != nil {
			// El archivo es opcional: un fallo no invalida el refresco
			logging.WarnWithError(ctx, "Failed to archive rate snapshot", err, logging.Fields{
				logging.FieldResource: id.String(),
			})
		}
	}

	logging.Info(ctx, "Rates refreshed", logging.Fields{
		logging.FieldResource: id.String(),
		"update_time":         snapshot.UpdateTime(),
		logging.FieldDuration: float64(time.Since(start).Nanoseconds()) / 1e6,
	})
	return nil
}

// Run arranca el cron y bloquea hasta que ctx se cancela
func (j *Job) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return ErrJobRunning
	}
	j.running = true
	j.mu.Unlock()

	if _, err := j.scheduler.AddFunc(j.spec, func() {
		_ = j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("add cron func: %w", err)
	}

	logging.Info(ctx, "Refresh job started", logging.Fields{"spec": j.spec})

	j.scheduler.Start()
	defer func() {
		stopCtx := j.scheduler.Stop()
		<-stopCtx.Done()
		logging.Info(context.Background(), "Refresh job stopped", nil)
	}()

	<-ctx.Done()
	return nil
}
