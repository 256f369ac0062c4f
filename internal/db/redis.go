package db

import (
	"context"
	"log"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

// InitRedis connects to the Redis server at redisURL and pings it.
func InitRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = 100
	rdb := redis.NewClient(opts)

	err = retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return rdb.Ping(ctx).Err()
		},
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Redis not ready (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Println("Redis connection successfully established.")
	return rdb, nil
}
