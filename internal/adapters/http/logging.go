package http

import (
	"context"
	"log/slog"
)

const (
	serviceName = "M11-Moderation-Service"
)

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// logHTTPOperationError records a failed moderation request. 5xx responses log
// at error level; everything below is a client problem and logs as a warning.
func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	fields := []any{
		"operation", operation,
		"outcome", "failure",
		"status_code", statusCode,
		"error_code", code,
		"message", message,
		"request_id", requestIDFromContext(ctx),
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if statusCode >= 500 {
		httpLogger().ErrorContext(ctx, "moderation request failed", fields...)
		return
	}
	httpLogger().WarnContext(ctx, "moderation request failed", fields...)
}

// logModeratorDenied keeps an audit line for every attempt to reach the
// review surface without the moderator role.
func logModeratorDenied(ctx context.Context, subject, role string) {
	httpLogger().WarnContext(ctx, "moderator gate denied",
		"operation", "moderator_gate",
		"outcome", "denied",
		"subject", subject,
		"role", role,
		"request_id", requestIDFromContext(ctx),
	)
}
