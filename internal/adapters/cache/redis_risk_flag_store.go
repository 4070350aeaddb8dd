package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisRiskFlagStore keeps per-user minors-risk flags in Redis. The classifier
// consults it on every analysis, so lookups must be cheap; an absent key means
// the user carries no flag.
type RedisRiskFlagStore struct {
	client *redis.Client
}

func NewRedisRiskFlagStore(client *redis.Client) *RedisRiskFlagStore {
	return &RedisRiskFlagStore{client: client}
}

func (s *RedisRiskFlagStore) MinorsRisk(ctx context.Context, userID string) (bool, error) {
	raw, err := s.client.Get(ctx, "moderation:risk:minors:"+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return raw == "1", nil
}

func (s *RedisRiskFlagStore) SetMinorsRisk(ctx context.Context, userID string, flagged bool) error {
	key := "moderation:risk:minors:" + userID
	if !flagged {
		return s.client.Del(ctx, key).Err()
	}
	return s.client.Set(ctx, key, "1", 0).Err()
}
