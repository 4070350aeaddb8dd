package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/stylingadventures/moderation-service/internal/application"
)

// Executor is the durable-queue replacement for a managed workflow runtime:
// it claims due runs and drives one step at a time through the application
// service. Several executors may run concurrently; the claim tokens keep them
// from double-executing a step.
type Executor struct {
	logger    *slog.Logger
	svc       *application.Service
	interval  time.Duration
	batchSize int
}

func NewExecutor(logger *slog.Logger, svc *application.Service, interval time.Duration, batchSize int) *Executor {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Executor{
		logger:    logger,
		svc:       svc,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run executes the claim-and-step loop until context cancellation.
func (e *Executor) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if err := e.processOnce(ctx); err != nil {
			e.logger.ErrorContext(ctx, "executor iteration failed",
				"module", "workflow.executor",
				"layer", "adapter",
				"operation", "process_once",
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

func (e *Executor) processOnce(ctx context.Context) error {
	runs, err := e.svc.ClaimRunnableRuns(ctx, e.batchSize)
	if err != nil {
		return err
	}

	for _, run := range runs {
		if err := e.svc.ExecuteStep(ctx, run); err != nil {
			// One broken run must not stall the batch.
			e.logger.ErrorContext(ctx, "workflow step failed",
				"module", "workflow.executor",
				"layer", "adapter",
				"operation", "execute_step",
				"outcome", "failure",
				"run_id", run.RunID,
				"state", run.State,
				"error", err,
			)
		}
	}
	return nil
}
