package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lexchain/internal/integrity/models"
)

const redisProofKeyPrefix = "lexchain:proof:"

// RedisCache shares cached proofs between pipeline replicas.
type RedisCache struct {
	client   redis.Cmdable
	ttl      time.Duration
	recorder LookupRecorder
}

// NewRedisCache constructs a Redis-backed proof cache; recorder may be nil.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, recorder LookupRecorder) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, recorder: recorder}
}

// Find returns ErrNotFound on a miss and wraps Redis or decode errors.
func (c *RedisCache) Find(ctx context.Context, key Key) (*models.IntegrityProof, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			record(c.recorder, false)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find proof cache: %w", err)
	}

	var proof models.IntegrityProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil, fmt.Errorf("decode proof cache: %w", err)
	}
	record(c.recorder, true)
	return &proof, nil
}

// Save writes proof with TTL eviction, overwriting any existing entry.
func (c *RedisCache) Save(ctx context.Context, key Key, proof *models.IntegrityProof) error {
	if proof == nil {
		return nil
	}
	payload, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("encode proof cache: %w", err)
	}
	if err := c.client.Set(ctx, redisKey(key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save proof cache: %w", err)
	}
	return nil
}

func redisKey(key Key) string {
	return redisProofKeyPrefix + key.String()
}
