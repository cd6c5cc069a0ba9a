package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "moodkeeper:session:capability:"

// Redis stores the flag under a per-user key with a TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Connect parses url, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *Redis) Get(ctx context.Context, userID string) (mood.Capability, bool, error) {
	v, err := r.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	c, err := mood.ParseCapability(v)
	if err != nil {
		return "", false, nil
	}
	return c, true, nil
}

func (r *Redis) Set(ctx context.Context, userID string, c mood.Capability) error {
	if err := r.client.Set(ctx, keyPrefix+userID, string(c), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
