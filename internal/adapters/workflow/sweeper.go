package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/stylingadventures/moderation-service/internal/application"
)

// Sweeper periodically auto-rejects reviews whose window closed without an
// admin decision, so no run stays suspended forever.
type Sweeper struct {
	logger    *slog.Logger
	svc       *application.Service
	interval  time.Duration
	batchSize int
}

func NewSweeper(logger *slog.Logger, svc *application.Service, interval time.Duration, batchSize int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Sweeper{
		logger:    logger,
		svc:       svc,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run executes the expiry sweep until context cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.svc.ExpireStaleApprovals(ctx, s.batchSize); err != nil {
			s.logger.ErrorContext(ctx, "approval expiry sweep failed",
				"module", "workflow.sweeper",
				"layer", "adapter",
				"operation", "expire_stale_approvals",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
