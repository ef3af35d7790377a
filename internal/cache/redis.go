package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/redis/go-redis/v9"

	"access-console/internal/config"
)

var logger = loggo.GetLogger("console.cache")

// RolesTTL bounds how stale the shared role list can get.
const RolesTTL = time.Minute

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every helper
// in this package degrades to a no-op.
func Init(cfg *config.Config) error {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		c.Close()
		client = nil
		return err
	}
	client = c
	return nil
}

// SetClient installs an already connected client (tests).
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client, nil when not connected.
func GetClient() *redis.Client {
	return client
}

// Close releases the connection.
func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

// Ping checks the connection. It fails when Init has not connected.
func Ping(ctx context.Context) error {
	if client == nil {
		return errors.New("redis not connected")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return errors.Trace(client.Ping(ctx).Err())
}

// TokenKey derives a cache key from an upstream bearer token without storing
// the token itself.
func TokenKey(prefix, token string) string {
	h := sha256.Sum256([]byte(token))
	return prefix + ":" + hex.EncodeToString(h[:])[:32]
}

// RolesKey is where the role list fetched with token is cached.
func RolesKey(token string) string {
	return TokenKey("roles", token)
}

// GetJSON decodes a cached value into out. It reports false on a miss, a
// decode failure or when Redis is unavailable.
func GetJSON(ctx context.Context, key string, out interface{}) bool {
	if client == nil {
		return false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Warningf("[Cache] Dropping undecodable %s: %v", key, err)
		client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores v with a TTL.
func SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warningf("[Cache] Not caching %s: %v", key, err)
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes cached values. A missing client is a no-op.
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
