package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
)

// Cache stores parsed enrichment payloads. Fallback payloads are never cached.
type Cache interface {
	Get(ctx context.Context, key string) (models.Fields, bool, error)
	Set(ctx context.Context, key string, fields models.Fields) error
}

// CacheKey identifies a payload by model and the exact prompt sent.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "enrichment:" + model + ":" + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Fields, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, err
	}
	return normalize(models.Fields(fields)), true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, fields models.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
