package cache

import (
	"context"
	"sync"
	"time"

	"ratewise-service/internal/domain/interfaces"
)

// cacheItem representa un elemento en el cache con su valor y tiempo de expiración.
// Un expiresAt cero significa que el elemento no expira.
type cacheItem struct {
	value     string
	expiresAt time.Time
}

// isExpired verifica si el item ha expirado
func (item *cacheItem) isExpired(now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

// MemoryCache implementa la interfaz Cache usando memoria local
type MemoryCache struct {
	items map[string]*cacheItem
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryCache crea una nueva instancia de cache en memoria
func NewMemoryCache() interfaces.Cache {
	return newMemoryCache(time.Now)
}

func newMemoryCache(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*cacheItem),
		now:   now,
	}
}

// Get obtiene un valor del cache
func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return "", ErrKeyNotFound
	}

	if item.isExpired(c.now()) {
		// Eliminar clave expirada para evitar fuga de memoria
		c.evictIfUnchanged(key, item)
		return "", ErrKeyExpired
	}

	return item.value, nil
}

// evictIfUnchanged borra key sólo si sigue apuntando a item; un Set concurrente
// entre el RUnlock de Get y este Lock conserva su entrada nueva.
func (c *MemoryCache) evictIfUnchanged(key string, item *cacheItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.items[key]; ok && current == item {
		delete(c.items, key)
	}
}

// Set reemplaza la entrada completa; ttl <= 0 la deja sin expiración
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictExpiredLocked(now)

	item := &cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	c.items[key] = item

	return nil
}

// Delete elimina un valor del cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear descarta todas las entradas
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem)
	return nil
}

// Size retorna el número de elementos en el cache (método auxiliar para debugging)
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Cleanup elimina elementos expirados del cache
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked(c.now())
}

func (c *MemoryCache) evictExpiredLocked(now time.Time) {
	for key, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, key)
		}
	}
}
