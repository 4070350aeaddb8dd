package ports

import "context"

// EventPublisher is the outbound domain-event publish port.
// The application uses this abstraction to keep broker/client concerns in adapters.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}

// ReviewNotifier delivers human-review requests to admin-facing subscribers.
// Closet reviews notify a single admin channel; background-change reviews
// broadcast so any available reviewer can pick them up.
type ReviewNotifier interface {
	NotifyReviewRequested(ctx context.Context, payload []byte) error
	BroadcastReviewRequested(ctx context.Context, payload []byte) error
}
