package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache caché en proceso, para una sola réplica o cuando no hay Redis.
type LRUCache struct {
	entries *lru.LRU[string, []string]
}

// NewLRUCache size entradas como máximo, cada una vive ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRUCache{entries: lru.NewLRU[string, []string](size, nil, ttl)}
}

// Get devuelve una copia de las claves cacheadas.
func (c *LRUCache) Get(_ context.Context, orgID, userID string) ([]string, bool) {
	keys, ok := c.entries.Get(permissionKey(orgID, userID))
	if !ok {
		return nil, false
	}
	return append([]string(nil), keys...), true
}

// Set guarda una copia de keys.
func (c *LRUCache) Set(_ context.Context, orgID, userID string, keys []string) {
	c.entries.Add(permissionKey(orgID, userID), append([]string{}, keys...))
}

// InvalidateOrg elimina las entradas con el prefijo de la organización.
func (c *LRUCache) InvalidateOrg(_ context.Context, orgID string) error {
	prefix := strings.TrimSuffix(orgPattern(orgID), "*")
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
		}
	}
	return nil
}

// Len entradas vigentes.
func (c *LRUCache) Len() int { return c.entries.Len() }
