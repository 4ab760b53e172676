package source

import (
	"context"
	"net/http"
	"time"

	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/logging"
)

// MirrorClient obtiene recursos de tasas probando los mirrors en orden
// y guardando el primer resultado válido en el SnapshotStore.
type MirrorClient struct {
	transport Transport
	mirrors   MirrorSet
	store     interfaces.SnapshotStore
	observer  interfaces.Observer
	logger    logging.MirrorLogger
	probe     bool
	now       func() time.Time
}

// Option personaliza un MirrorClient
type Option func(*MirrorClient)

// WithObserver registra el sink de eventos
func WithObserver(observer interfaces.Observer) Option {
	return func(c *MirrorClient) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithProbe activa el HEAD previo a cada GET
func WithProbe(enabled bool) Option {
	return func(c *MirrorClient) {
		c.probe = enabled
	}
}

// WithMirrorLogger reemplaza el logger global de mirrors
func WithMirrorLogger(logger logging.MirrorLogger) Option {
	return func(c *MirrorClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock fija el reloj usado para RetrievedAt
func WithClock(now func() time.Time) Option {
	return func(c *MirrorClient) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMirrorClient crea el cliente de la fuente de tasas
func NewMirrorClient(transport Transport, mirrors MirrorSet, store interfaces.SnapshotStore, opts ...Option) *MirrorClient {
	c := &MirrorClient{
		transport: transport,
		mirrors:   mirrors,
		store:     store,
		observer:  interfaces.NopObserver{},
		logger:    logging.Mirror(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchResource devuelve el snapshot del cache si está vigente;
// si no, lo descarga del primer mirror que responda.
func (c *MirrorClient) FetchResource(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if snapshot, ok := c.store.Get(ctx, id); ok {
		c.observer.CacheHit(ctx, id.String())
		return snapshot, nil
	}
	c.observer.CacheMiss(ctx, id.String())

	return c.fetchFromMirrors(ctx, id)
}

// Refresh ignora el cache y reemplaza la entrada con datos nuevos
func (c *MirrorClient) Refresh(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fetchFromMirrors(ctx, id)
}

// ClearCache vacía el cache de snapshots
func (c *MirrorClient) ClearCache(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *MirrorClient) fetchFromMirrors(ctx context.Context, id entities.ResourceID) (*entities.RateSnapshot, error) {
	resource := id.String()
	urls := c.mirrors.URLs(id)

	failure := &FetchFailure{
		Resource: resource,
		URLs:     make([]string, 0, len(urls)),
	}

	for i, mirrorURL := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		failure.URLs = append(failure.URLs, mirrorURL)
		c.logger.AttemptStarted(ctx, resource, mirrorURL, i, len(urls))
		start := c.now()

		snapshot, err := c.tryMirror(ctx, mirrorURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failure.Causes = append(failure.Causes, err)
			c.observer.MirrorFailed(ctx, resource, mirrorURL, StatusCode(err), err)
			continue
		}

		c.observer.MirrorSucceeded(ctx, resource, mirrorURL, c.now().Sub(start))

		// un fallo del cache no invalida datos ya descargados
		if err := c.store.Set(ctx, id, snapshot); err != nil {
			logging.WarnWithError(ctx, "Failed to cache rate snapshot", err, logging.Fields{
				logging.FieldResource: resource,
			})
		}
		return snapshot, nil
	}

	c.observer.FetchFailed(ctx, resource, failure.URLs)
	return nil, failure
}

func (c *MirrorClient) tryMirror(ctx context.Context, mirrorURL string) (*entities.RateSnapshot, error) {
	if c.probe {
		exists, err := c.transport.Probe(ctx, mirrorURL)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, newStatusError(http.StatusNotFound)
		}
	}

	body, err := c.transport.Retrieve(ctx, mirrorURL)
	if err != nil {
		return nil, err
	}

	return DecodePayload(body, c.now())
}
