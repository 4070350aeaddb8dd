package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from either a redis:// URL or a bare
// host:port, so local and container config paths both work unchanged.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if !strings.HasPrefix(redisURL, "redis://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}
