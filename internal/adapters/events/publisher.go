package events

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans domain events out on per-type Redis channels.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher publishes every event on channelPrefix + "." + eventType.
func NewRedisPublisher(client *redis.Client, channelPrefix string) *RedisPublisher {
	if channelPrefix == "" {
		channelPrefix = "moderation.events"
	}
	return &RedisPublisher{client: client, channel: channelPrefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	return p.client.Publish(ctx, p.channel+"."+eventType, payload).Err()
}

// LoggingPublisher is the no-broker fallback used in tests and local runs.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.logger.InfoContext(ctx, "published event", "event_type", eventType, "payload", string(payload))
	return nil
}
