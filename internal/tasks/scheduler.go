package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshJob asks the pricing service to refresh an asset's comparable sales.
// Purely advisory; nothing in the core waits on it.
type RefreshJob struct {
	AssetID string `json:"assetId"`
}

// RefreshScheduler queues a delayed price-refresh for an asset.
type RefreshScheduler interface {
	Schedule(ctx context.Context, assetID string, delay time.Duration) error
}

const refreshQueueKey = "price:refresh:due"

// RedisScheduler stores due jobs in a sorted set scored by their ready time;
// the pricing service drains members whose score has passed.
type RedisScheduler struct {
	Client *redis.Client
}

func NewRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisScheduler(client *redis.Client) *RedisScheduler {
	return &RedisScheduler{Client: client}
}

func (s *RedisScheduler) Schedule(ctx context.Context, assetID string, delay time.Duration) error {
	readyAt := time.Now().Add(delay)
	return s.Client.ZAdd(ctx, refreshQueueKey, redis.Z{
		Score:  float64(readyAt.Unix()),
		Member: assetID,
	}).Err()
}

// NopScheduler is used when no redis queue is configured.
type NopScheduler struct{}

func (NopScheduler) Schedule(context.Context, string, time.Duration) error { return nil }
