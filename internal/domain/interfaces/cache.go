package interfaces

import (
	"context"
	"time"
)

// Cache define un almacenamiento clave/valor con TTL.
// Un TTL igual a cero significa que la entrada no expira.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear elimina todas las entradas administradas por este cache
	Clear(ctx context.Context) error
}
