// Package cache guarda las claves de permiso por (organización, usuario) para que el guard
// no consulte roles en cada petición. Cualquier cambio de roles o licencias invalida la organización entera.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/erp-suite-api/internal/application/guard"
)

var (
	_ guard.PermissionCache = (*RedisCache)(nil)
	_ guard.PermissionCache = (*LRUCache)(nil)
)

// DefaultTTL vida de una entrada si la configuración no indica otra.
const DefaultTTL = 5 * time.Minute

// permissionKey perms:{org}:{user}. El prefijo por organización permite invalidar por patrón.
func permissionKey(orgID, userID string) string {
	return fmt.Sprintf("perms:%s:%s", orgID, userID)
}

func orgPattern(orgID string) string {
	return fmt.Sprintf("perms:%s:*", orgID)
}

// RedisCache caché compartida entre réplicas del API.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisCache construye la caché sobre un cliente ya conectado.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Get devuelve las claves cacheadas. Un error de Redis se trata como fallo de caché.
func (c *RedisCache) Get(ctx context.Context, orgID, userID string) ([]string, bool) {
	raw, err := c.client.Get(ctx, permissionKey(orgID, userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("redis: lectura de permisos fallida")
		}
		return nil, false
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		c.log.Warn().Err(err).Msg("redis: entrada de permisos corrupta")
		return nil, false
	}
	return keys, true
}

// Set guarda las claves con el TTL configurado.
func (c *RedisCache) Set(ctx context.Context, orgID, userID string, keys []string) {
	if keys == nil {
		keys = []string{}
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, permissionKey(orgID, userID), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("redis: escritura de permisos fallida")
	}
}

// InvalidateOrg borra todas las entradas de la organización (SCAN + DEL).
func (c *RedisCache) InvalidateOrg(ctx context.Context, orgID string) error {
	iter := c.client.Scan(ctx, 0, orgPattern(orgID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	c.log.Debug().Int("keys", len(keys)).Str("org_id", orgID).Msg("permisos invalidados")
	return nil
}
