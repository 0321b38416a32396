package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
	redisErr    error
)

// GetRedis connects once per process. A failed ping is returned so callers can run
// without the enrichment cache.
func GetRedis(cfg *config.Config) (*redis.Client, error) {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.EnrichmentWorkers + 1,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if redisErr = redisClient.Ping(ctx).Err(); redisErr != nil {
			logger.Log.WithError(redisErr).Warn("Redis not reachable")
		} else {
			logger.Log.WithField("addr", redisClient.Options().Addr).Info("Connected to Redis")
		}
	})

	return redisClient, redisErr
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
