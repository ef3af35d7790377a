package session

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps each session as one hash, session:{id}, whose TTL is
// renewed on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store on client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (r *RedisStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	v, err := r.client.HGet(ctx, redisKey(sessionID), key).Bytes()
	if err == redis.Nil {
		return nil, missing(sessionID, key)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "reading session key %q", key)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	k := redisKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, k, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warningf("[Session] Failed to write %s for %s: %v", key, sessionID, err)
		return errors.Annotatef(err, "writing session key %q", key)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, redisKey(sessionID), keys...).Err(); err != nil {
		return errors.Annotate(err, "deleting session keys")
	}
	return nil
}

func (r *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKey(sessionID)).Result()
	if err != nil {
		return false, errors.Annotate(err, "checking session")
	}
	return n > 0, nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return errors.Annotate(err, "clearing session")
	}
	return nil
}
