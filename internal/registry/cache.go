package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grunnlag/pkg/platform/sentinel"
)

const personKeyPrefix = "grunnlag:registry:person:"

// RedisCache keeps person lookups in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) FindPerson(ctx context.Context, key PersonKey) (*PersonSvar, error) {
	raw, err := c.client.Get(ctx, personKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get person: %w", err)
	}
	var svar PersonSvar
	if err := json.Unmarshal(raw, &svar); err != nil {
		return nil, fmt.Errorf("decode cached person: %w", err)
	}
	return &svar, nil
}

func (c *RedisCache) SavePerson(ctx context.Context, key PersonKey, svar *PersonSvar) error {
	if svar == nil {
		return nil
	}
	raw, err := json.Marshal(svar)
	if err != nil {
		return fmt.Errorf("encode person: %w", err)
	}
	if err := c.client.Set(ctx, personKeyPrefix+key.String(), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set person: %w", err)
	}
	return nil
}
