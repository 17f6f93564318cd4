package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client for link checkpoints
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// checkpointKey scopes a link to the price it was created with, so a
// repriced row never gets its old link back.
func checkpointKey(slug string, unitAmount int64) string {
	return fmt.Sprintf("checkout:%s:%d", slug, unitAmount)
}

// SaveCheckpoint remembers the checkout URL created for a slug at a price
func (c *Client) SaveCheckpoint(ctx context.Context, slug string, unitAmount int64, checkoutURL string) error {
	return c.rdb.Set(ctx, checkpointKey(slug, unitAmount), checkoutURL, c.ttl).Err()
}

// GetCheckpoint returns the checkpointed URL for a slug at a price; found is false when there is none
func (c *Client) GetCheckpoint(ctx context.Context, slug string, unitAmount int64) (string, bool, error) {
	url, err := c.rdb.Get(ctx, checkpointKey(slug, unitAmount)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}
