package utils

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/givecircle/givecircle-backend/config"
)

// InitRedis connects to Redis for report caching. Returns nil when no
// address is configured; callers degrade to uncached operation.
func InitRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Println("⚠️ REDIS_ADDR not set, report caching disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable at %s, report caching disabled: %v", cfg.RedisAddr, err)
		return nil
	}

	log.Println("✅ Connected to Redis")
	return client
}
