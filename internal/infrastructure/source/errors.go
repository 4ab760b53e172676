package source

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrFetchFailure     = errors.New("all rate mirrors failed")
	ErrRetryableRequest = errors.New("retryable mirror request failed")
	ErrNonRetryable     = errors.New("non-retryable mirror error")
	ErrNotFound         = errors.New("resource not found on mirror")
	ErrInvalidPayload   = errors.New("invalid rate payload")
)

// StatusError conserva el código HTTP devuelto por un mirror
type StatusError struct {
	StatusCode int
	kind       error
}

func newStatusError(statusCode int) *StatusError {
	kind := ErrNonRetryable
	switch {
	case statusCode == http.StatusNotFound:
		kind = ErrNotFound
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		kind = ErrRetryableRequest
	}
	return &StatusError{StatusCode: statusCode, kind: kind}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", e.kind, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// StatusCode extrae el código HTTP de un error de transporte; 0 si no hubo respuesta
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// FetchFailure se devuelve cuando ningún mirror pudo servir el recurso
type FetchFailure struct {
	Resource string
	URLs     []string
	Causes   []error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s: all %d mirrors failed: %s", e.Resource, len(e.URLs), strings.Join(e.URLs, ", "))
}

func (e *FetchFailure) Unwrap() error {
	return ErrFetchFailure
}

// NotPublished indica que todos los mirrors respondieron 404
func (e *FetchFailure) NotPublished() bool {
	if len(e.Causes) == 0 {
		return false
	}
	for _, cause := range e.Causes {
		if !errors.Is(cause, ErrNotFound) {
			return false
		}
	}
	return true
}
