package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisReviewNotifier delivers human-review requests over Redis pub/sub.
// Closet reviews go to a single admin channel; background-change reviews go to
// the broadcast channel so any available reviewer can pick them up.
type RedisReviewNotifier struct {
	client           *redis.Client
	adminChannel     string
	broadcastChannel string
}

func NewRedisReviewNotifier(client *redis.Client, adminChannel, broadcastChannel string) *RedisReviewNotifier {
	if adminChannel == "" {
		adminChannel = "moderation.reviews.admin"
	}
	if broadcastChannel == "" {
		broadcastChannel = "moderation.reviews.broadcast"
	}
	return &RedisReviewNotifier{
		client:           client,
		adminChannel:     adminChannel,
		broadcastChannel: broadcastChannel,
	}
}

func (n *RedisReviewNotifier) NotifyReviewRequested(ctx context.Context, payload []byte) error {
	return n.client.Publish(ctx, n.adminChannel, payload).Err()
}

func (n *RedisReviewNotifier) BroadcastReviewRequested(ctx context.Context, payload []byte) error {
	return n.client.Publish(ctx, n.broadcastChannel, payload).Err()
}
