package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	BaseBackoff       = 100 * time.Millisecond
	MaxBackoff        = 2 * time.Second
	maxPayloadBytes   = 4 << 20
)

// Transport abstrae el acceso HTTP a un mirror
type Transport interface {
	// Probe indica si el recurso existe sin descargarlo
	Probe(ctx context.Context, rawURL string) (bool, error)
	// Retrieve descarga el cuerpo del recurso
	Retrieve(ctx context.Context, rawURL string) ([]byte, error)
}

// Limiter regula las peticiones salientes por mirror
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// TransportOptions configura reintentos y backoff de HTTPTransport
type TransportOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Limiter     Limiter // opcional
}

// HTTPTransport implementa Transport con net/http y retry-go
type HTTPTransport struct {
	httpClient *http.Client
	opts       TransportOptions
}

// NewHTTPTransport crea el transporte; los valores cero toman los defaults
func NewHTTPTransport(opts TransportOptions) *HTTPTransport {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = BaseBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = MaxBackoff
	}

	return &HTTPTransport{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// Probe envía un HEAD. 404 significa que el recurso no existe;
// un 405 deja la decisión al GET posterior.
func (t *HTTPTransport) Probe(ctx context.Context, rawURL string) (bool, error) {
	if err := t.wait(ctx, rawURL); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", ErrNonRetryable, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return false, t.classifyTransportError(ctx, err)
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, newStatusError(resp.StatusCode)
	}
}

// Retrieve descarga el recurso reintentando fallos transitorios (5xx, 429, red)
func (t *HTTPTransport) Retrieve(ctx context.Context, rawURL string) ([]byte, error) {
	host := hostOf(rawURL)
	var body []byte

	retryErr := retry.Do(
		func() error {
			b, err := t.doGet(ctx, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Attempts(uint(t.opts.MaxRetries+1)),
		retry.Delay(t.opts.BaseBackoff),
		retry.MaxDelay(t.opts.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryableError),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordMirrorRetry(host, int(n+1))
			logging.Debug(ctx, "Mirror retry attempt", logging.Fields{
				logging.FieldMirrorURL: rawURL,
				logging.FieldAttempt:   n + 1,
				"max_attempts":         t.opts.MaxRetries + 1,
				logging.FieldError:     err.Error(),
			})
		}),
	)

	if retryErr != nil {
		return nil, retryErr
	}
	return body, nil
}

func (t *HTTPTransport) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	if err := t.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrNonRetryable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if requestID := logging.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Correlation-ID", requestID)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, t.classifyTransportError(ctx, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrRetryableRequest, err)
	}
	return body, nil
}

// wait consume un permiso del limiter; un error aquí es siempre del contexto
func (t *HTTPTransport) wait(ctx context.Context, rawURL string) error {
	if t.opts.Limiter == nil {
		return nil
	}
	return t.opts.Limiter.Wait(ctx, rawURL)
}

// classifyTransportError: la cancelación del llamador nunca se reintenta
func (t *HTTPTransport) classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrRetryableRequest, err)
}

func isRetryableError(err error) bool {
	return errors.Is(err, ErrRetryableRequest)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}
