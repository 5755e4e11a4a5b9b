package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis list used when none is configured.
const DefaultKey = "referral:scoring:jobs"

// RedisClient is a FIFO queue on a Redis list: LPUSH to send, BRPOP to receive.
type RedisClient struct {
	rdb *redis.Client
	key string
}

// NewRedisClient constructs a Redis-backed queue on key.
func NewRedisClient(rdb *redis.Client, key string) (*RedisClient, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key = strings.TrimSpace(key); key == "" {
		key = DefaultKey
	}
	return &RedisClient{rdb: rdb, key: key}, nil
}

// Send delivers a message to the list.
func (c *RedisClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	if err := c.rdb.LPush(ctx, c.key, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

// Receive blocks up to wait for the oldest message.
func (c *RedisClient) Receive(ctx context.Context, wait time.Duration) (string, error) {
	res, err := c.rdb.BRPop(ctx, wait, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoMessage
		}
		return "", fmt.Errorf("redis brpop: %w", err)
	}
	if len(res) != 2 {
		return "", fmt.Errorf("redis brpop: unexpected reply length %d", len(res))
	}
	return res[1], nil
}

var (
	_ Client   = (*RedisClient)(nil)
	_ Consumer = (*RedisClient)(nil)
)
