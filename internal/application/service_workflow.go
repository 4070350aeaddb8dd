package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/stylingadventures/moderation-service/internal/domain"
)

// ClaimRunnableRuns hands the executor a batch of due runs under a fresh claim
// token so concurrent workers never double-execute a step.
func (s *Service) ClaimRunnableRuns(ctx context.Context, limit int) ([]domain.WorkflowRun, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.runs.ClaimRunnable(ctx, limit, uuid.NewString(), s.nowFn().Add(s.cfg.ClaimTTL))
}

// ExecuteStep runs the side effect for a claimed run's current state and
// advances the state machine. Steps within one run are strictly sequential;
// runs interleave freely. A task failure is retried with backoff up to the
// configured attempts, then fails the whole run.
func (s *Service) ExecuteStep(ctx context.Context, run domain.WorkflowRun) error {
	if domain.IsTerminalState(run.State) {
		return nil
	}

	if domain.IsSuspensionState(run.State) {
		return s.suspendForReview(ctx, run)
	}

	from := run.State
	ev, err := s.runTask(ctx, &run)
	if err != nil {
		return s.recordTaskFailure(ctx, run, from, err)
	}

	next, err := domain.Transition(run.Kind, run.State, ev)
	if err != nil {
		return err
	}

	now := s.nowFn()
	run.State = next
	run.Attempt = 0
	run.LastError = ""
	run.NextAttemptAt = now
	run.UpdatedAt = now
	if domain.IsTerminalState(next) {
		if err := s.finalizeRun(ctx, &run, ""); err != nil {
			return err
		}
	}

	if err := s.runs.Advance(ctx, run, from); err != nil {
		return fmt.Errorf("advance run %s: %w", run.RunID, err)
	}

	slog.Default().InfoContext(ctx, "workflow step executed",
		"module", "workflow",
		"layer", "application",
		"operation", "execute_step",
		"outcome", "success",
		"run_id", run.RunID,
		"kind", run.Kind,
		"from_state", from,
		"to_state", next,
	)
	return nil
}

// runTask performs the side effect for the current task state and merges its
// output into the run payload under its own namespace. Earlier namespaces are
// never dropped; downstream tasks rely on the item snapshot surviving.
func (s *Service) runTask(ctx context.Context, run *domain.WorkflowRun) (domain.Event, error) {
	ev := domain.Event{Type: domain.EventTaskCompleted}

	switch run.State {
	case domain.StateValidateBgChange:
		if run.Payload.Item.Kind != domain.KindBackgroundChange {
			return ev, fmt.Errorf("%w: run %s is not a background change", domain.ErrInvalidInput, run.RunID)
		}
		if strings.TrimSpace(run.Payload.Item.RawMediaKey) == "" {
			return ev, fmt.Errorf("%w: background change without media", domain.ErrInvalidInput)
		}

	case domain.StateSegmentOutfit, domain.StateSegmentBgChange:
		seg, err := s.segmenter.Segment(ctx, run.Payload.Item.RawMediaKey)
		if err != nil {
			return ev, fmt.Errorf("%w: segmentation: %v", domain.ErrTaskInvocation, err)
		}
		run.Payload.Segmentation = &seg
		if err := s.submissions.SetProcessedMediaKey(ctx, run.ItemID, seg.OutputKey, s.nowFn()); err != nil {
			return ev, fmt.Errorf("store processed key: %w", err)
		}

	case domain.StateModerateImage, domain.StateModerateBg:
		decision, err := s.AnalyzeAndDecide(ctx, AnalyzeRequest{
			ItemID:   run.ItemID,
			OwnerID:  run.OwnerID,
			Text:     run.Payload.Item.Text,
			Tags:     run.Payload.Item.Tags,
			MediaKey: s.scoringKey(run.Payload),
		})
		if err != nil {
			return ev, fmt.Errorf("%w: moderation: %v", domain.ErrTaskInvocation, err)
		}
		run.Payload.Moderation = &decision

	case domain.StateCheckPII:
		result, err := s.piiScanner.Scan(ctx, run.Payload)
		if err != nil {
			return ev, fmt.Errorf("%w: pii check: %v", domain.ErrTaskInvocation, err)
		}
		run.Payload.PII = &result

	case domain.StatePublishItem, domain.StateApplyBgChange:
		if err := s.publishProcessedMedia(ctx, run.Payload); err != nil {
			return ev, err
		}

	case domain.StateComposeStory:
		// Pass-through placeholder; only the branch condition matters.
		ev.Scheduled = run.Payload.Item.ScheduledAt != nil

	case domain.StatePublishStory:
		if err := s.objects.Copy(ctx, run.Payload.Item.RawMediaKey, s.publishedKey(run.Payload.Item.RawMediaKey)); err != nil {
			return ev, fmt.Errorf("%w: publish story: %v", domain.ErrTaskInvocation, err)
		}
		s.enqueueEvent(ctx, eventTypeStoryPublished, run.OwnerID, map[string]any{
			"story_id": run.ItemID,
			"owner_id": run.OwnerID,
		})

	case domain.StateMarkScheduled:
		// Records intent only; timed publication happens elsewhere.
		s.appendAudit(ctx, run.ItemID, "story.scheduled", "system", map[string]any{
			"run_id":       run.RunID,
			"scheduled_at": run.Payload.Item.ScheduledAt,
		})
		s.enqueueEvent(ctx, eventTypeStoryScheduled, run.OwnerID, map[string]any{
			"story_id":     run.ItemID,
			"owner_id":     run.OwnerID,
			"scheduled_at": run.Payload.Item.ScheduledAt,
		})

	default:
		return ev, fmt.Errorf("%w: state %s has no task", domain.ErrInvalidTransition, run.State)
	}

	return ev, nil
}

// suspendForReview parks the run on a persisted approval row and notifies
// reviewers. The row is the continuation: resumption survives restarts and the
// token is consumed at most once. A retried suspend reuses the row an earlier
// attempt left behind, so a crash or a lost CAS never strands a second token.
func (s *Service) suspendForReview(ctx context.Context, run domain.WorkflowRun) error {
	now := s.nowFn()
	task := domain.ApprovalTask{
		CorrelationID:     run.ItemID,
		TaskToken:         uuid.NewString(),
		RunID:             run.RunID,
		OwnerID:           run.OwnerID,
		Kind:              run.Payload.Item.Kind,
		Status:            domain.ApprovalPending,
		ProcessedImageKey: s.scoringKey(run.Payload),
		RequestedAt:       now,
		ExpiresAt:         now.Add(s.cfg.ReviewExpiry),
	}
	if err := s.approvals.CreatePending(ctx, task); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("create approval task: %w", err)
		}
		existing, getErr := s.approvals.GetPending(ctx, run.ItemID)
		if getErr != nil {
			return fmt.Errorf("reuse approval task: %w", getErr)
		}
		task = existing
	}

	from := run.State
	run.Status = domain.RunSuspended
	run.UpdatedAt = now
	if err := s.runs.Advance(ctx, run, from); err != nil {
		return fmt.Errorf("suspend run %s: %w", run.RunID, err)
	}

	if err := s.submissions.UpdateStatus(ctx, run.ItemID, domain.StatusPendingReview, "", now); err != nil {
		slog.Default().WarnContext(ctx, "failed to mark submission pending review",
			"module", "workflow",
			"layer", "application",
			"operation", "suspend_for_review",
			"item_id", run.ItemID,
			"error", err,
		)
	}

	// The token leaves the service only after the suspension is durable; a
	// completion must never observe a run that is still RUNNING. The pending
	// queue is authoritative, so a failed notification degrades to reviewers
	// polling it and the sweeper still bounds the wait.
	payload, _ := run.MarshalPayload()
	notice, _ := marshalReviewNotice(task, payload)
	var notifyErr error
	if run.Kind == domain.WorkflowBackgroundChange {
		// Broadcast so any available reviewer can pick the request up.
		notifyErr = s.notifier.BroadcastReviewRequested(ctx, notice)
	} else {
		notifyErr = s.notifier.NotifyReviewRequested(ctx, notice)
	}
	if notifyErr != nil {
		slog.Default().WarnContext(ctx, "review notification failed",
			"module", "workflow",
			"layer", "application",
			"operation", "suspend_for_review",
			"outcome", "degraded",
			"run_id", run.RunID,
			"correlation_id", task.CorrelationID,
			"error", notifyErr,
		)
	}

	slog.Default().InfoContext(ctx, "run suspended for human review",
		"module", "workflow",
		"layer", "application",
		"operation", "suspend_for_review",
		"outcome", "success",
		"run_id", run.RunID,
		"correlation_id", task.CorrelationID,
		"expires_at", task.ExpiresAt,
	)
	return nil
}

// resumeRun applies a review outcome to a suspended run and finalizes it if
// the choice lands on a terminal state.
func (s *Service) resumeRun(ctx context.Context, runID string, ev domain.Event, reason string) (domain.WorkflowRun, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return domain.WorkflowRun{}, err
	}
	if run.Status != domain.RunSuspended || !domain.IsSuspensionState(run.State) {
		return domain.WorkflowRun{}, fmt.Errorf("%w: run %s in state %s", domain.ErrRunNotSuspended, runID, run.State)
	}

	next, err := domain.Transition(run.Kind, run.State, ev)
	if err != nil {
		return domain.WorkflowRun{}, err
	}

	from := run.State
	now := s.nowFn()
	run.State = next
	run.Status = domain.RunRunning
	run.Attempt = 0
	run.NextAttemptAt = now
	run.UpdatedAt = now
	if domain.IsTerminalState(next) {
		if err := s.finalizeRun(ctx, &run, reason); err != nil {
			return domain.WorkflowRun{}, err
		}
	}

	if err := s.runs.Advance(ctx, run, from); err != nil {
		return domain.WorkflowRun{}, fmt.Errorf("resume run %s: %w", runID, err)
	}
	return run, nil
}

// recordTaskFailure schedules a retry with exponential backoff, or fails the
// run once attempts are exhausted. Failures are never silently swallowed; a
// dead run is visible to operators and the owner.
func (s *Service) recordTaskFailure(ctx context.Context, run domain.WorkflowRun, from domain.WorkflowState, taskErr error) error {
	now := s.nowFn()
	run.Attempt++
	run.LastError = taskErr.Error()
	run.UpdatedAt = now

	if run.Attempt < s.cfg.MaxTaskAttempts {
		run.NextAttemptAt = now.Add(s.cfg.RetryBaseDelay << (run.Attempt - 1))
		if err := s.runs.Advance(ctx, run, from); err != nil {
			return fmt.Errorf("schedule retry for run %s: %w", run.RunID, err)
		}
		slog.Default().WarnContext(ctx, "workflow task failed, retry scheduled",
			"module", "workflow",
			"layer", "application",
			"operation", "execute_step",
			"outcome", "retry",
			"run_id", run.RunID,
			"state", from,
			"attempt", run.Attempt,
			"next_attempt_at", run.NextAttemptAt,
			"error", taskErr,
		)
		return nil
	}

	next, err := domain.Transition(run.Kind, run.State, domain.Event{Type: domain.EventTaskFailed})
	if err != nil {
		return err
	}
	run.State = next
	if err := s.finalizeRun(ctx, &run, run.LastError); err != nil {
		return err
	}
	if err := s.runs.Advance(ctx, run, from); err != nil {
		return fmt.Errorf("fail run %s: %w", run.RunID, err)
	}

	slog.Default().ErrorContext(ctx, "workflow run failed after retries",
		"module", "workflow",
		"layer", "application",
		"operation", "execute_step",
		"outcome", "failure",
		"run_id", run.RunID,
		"state", from,
		"attempts", run.Attempt,
		"error", taskErr,
	)
	return nil
}

// finalizeRun applies terminal-state effects: run status, submission status,
// owner-facing events, and the audit trail. The caller persists the run.
func (s *Service) finalizeRun(ctx context.Context, run *domain.WorkflowRun, reason string) error {
	now := s.nowFn()
	hasSubmission := run.Kind != domain.WorkflowStoryPublish

	switch run.State {
	case domain.StateFailed:
		run.Status = domain.RunFailed
		if hasSubmission {
			if err := s.submissions.UpdateStatus(ctx, run.ItemID, domain.StatusFailed, reason, now); err != nil {
				return fmt.Errorf("mark submission failed: %w", err)
			}
		}
		s.enqueueEvent(ctx, eventTypeRunFailed, run.OwnerID, map[string]any{
			"run_id":   run.RunID,
			"item_id":  run.ItemID,
			"owner_id": run.OwnerID,
			"error":    reason,
		})

	case domain.StatePublished:
		run.Status = domain.RunSucceeded
		if err := s.submissions.UpdateStatus(ctx, run.ItemID, domain.StatusPublished, "", now); err != nil {
			return fmt.Errorf("mark submission published: %w", err)
		}
		s.enqueueEvent(ctx, eventTypeItemPublished, run.OwnerID, map[string]any{
			"item_id":  run.ItemID,
			"owner_id": run.OwnerID,
		})

	case domain.StateRejected, domain.StateRejectedPass:
		run.Status = domain.RunSucceeded
		if err := s.submissions.UpdateStatus(ctx, run.ItemID, domain.StatusRejected, reason, now); err != nil {
			return fmt.Errorf("mark submission rejected: %w", err)
		}
		s.enqueueEvent(ctx, eventTypeItemRejected, run.OwnerID, map[string]any{
			"item_id":  run.ItemID,
			"owner_id": run.OwnerID,
			"reason":   reason,
		})

	case domain.StateSucceeded:
		run.Status = domain.RunSucceeded
		if run.Kind == domain.WorkflowBackgroundChange {
			if err := s.submissions.UpdateStatus(ctx, run.ItemID, domain.StatusPublished, "", now); err != nil {
				return fmt.Errorf("mark submission published: %w", err)
			}
			s.enqueueEvent(ctx, eventTypeItemPublished, run.OwnerID, map[string]any{
				"item_id":  run.ItemID,
				"owner_id": run.OwnerID,
			})
		}

	default:
		return fmt.Errorf("%w: %s is not terminal", domain.ErrInvalidTransition, run.State)
	}

	s.appendAudit(ctx, run.ItemID, "workflow.completed", "system", map[string]any{
		"run_id": run.RunID,
		"kind":   run.Kind,
		"state":  run.State,
		"status": run.Status,
	})
	return nil
}

// publishProcessedMedia copies the segmented output into the published
// namespace. Copying is idempotent, so a retried publish step is safe.
func (s *Service) publishProcessedMedia(ctx context.Context, payload domain.RunPayload) error {
	key := s.scoringKey(payload)
	if key == "" {
		return fmt.Errorf("%w: no media to publish", domain.ErrTaskInvocation)
	}
	if err := s.objects.Copy(ctx, key, s.publishedKey(key)); err != nil {
		return fmt.Errorf("%w: publish media: %v", domain.ErrTaskInvocation, err)
	}
	return nil
}

// scoringKey prefers the segmented output over the raw upload.
func (s *Service) scoringKey(payload domain.RunPayload) string {
	if payload.Segmentation != nil && payload.Segmentation.OutputKey != "" {
		return payload.Segmentation.OutputKey
	}
	return payload.Item.RawMediaKey
}

func (s *Service) publishedKey(fromKey string) string {
	idx := strings.LastIndex(fromKey, "/")
	return s.cfg.PublishedPrefix + fromKey[idx+1:]
}

// marshalReviewNotice builds the message reviewers receive: the token and
// enough context to decide without another lookup.
func marshalReviewNotice(task domain.ApprovalTask, runPayload []byte) ([]byte, error) {
	return json.Marshal(map[string]any{
		"correlation_id":      task.CorrelationID,
		"task_token":          task.TaskToken,
		"owner_id":            task.OwnerID,
		"kind":                task.Kind,
		"processed_image_key": task.ProcessedImageKey,
		"requested_at":        task.RequestedAt,
		"expires_at":          task.ExpiresAt,
		"run_payload":         json.RawMessage(runPayload),
	})
}
