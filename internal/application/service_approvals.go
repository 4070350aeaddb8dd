package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

// CompleteApproval applies the admin's verdict to the suspended run, then
// consumes the pending review. The run resumes first: the compare-and-swap on
// its suspension state admits exactly one verdict, and a completion that loses
// the race or arrives before the suspension committed leaves the token PENDING
// so the caller can retry. The conditional PENDING to COMPLETED update then
// closes the row; a second completion for the same correlation id fails with
// ErrApprovalNotPending.
func (s *Service) CompleteApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	correlationID := strings.TrimSpace(req.CorrelationID)
	if correlationID == "" {
		return ApprovalResponse{}, fmt.Errorf("%w: correlation id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.ReviewedBy) == "" {
		return ApprovalResponse{}, fmt.Errorf("%w: reviewer identity is required", domain.ErrInvalidInput)
	}

	// Default deny: anything other than exactly APPROVE rejects, including
	// malformed or missing decisions.
	decision := strings.ToUpper(strings.TrimSpace(req.Decision))
	if decision != domain.ApprovalDecisionApprove {
		decision = domain.ApprovalDecisionReject
	}
	reason := strings.TrimSpace(req.Reason)
	if decision == domain.ApprovalDecisionReject && reason == "" {
		reason = "Rejected by moderator review"
	}

	now := s.nowFn()
	task, err := s.approvals.GetPending(ctx, correlationID)
	if err != nil {
		return ApprovalResponse{}, err
	}

	ev := domain.Event{Type: domain.EventDecision, Decision: decision}
	if task.Kind == domain.KindBackgroundChange {
		ev = domain.Event{Type: domain.EventApproval, Approved: decision == domain.ApprovalDecisionApprove}
	}
	if _, err := s.resumeRun(ctx, task.RunID, ev, reason); err != nil {
		return ApprovalResponse{}, err
	}

	if _, err := s.approvals.CompletePending(ctx, correlationID, decision, reason, req.ReviewedBy, now); err != nil {
		return ApprovalResponse{}, err
	}

	latency := now.Sub(task.RequestedAt)
	slog.Default().InfoContext(ctx, "approval completed",
		"module", "approvals",
		"layer", "application",
		"operation", "complete_approval",
		"outcome", "success",
		"correlation_id", correlationID,
		"decision", decision,
		"reviewed_by", req.ReviewedBy,
		"review_latency_ms", latency.Milliseconds(),
	)

	s.appendAudit(ctx, correlationID, "approval.completed", req.ReviewedBy, map[string]any{
		"decision":          decision,
		"reason":            reason,
		"run_id":            task.RunID,
		"review_latency_ms": latency.Milliseconds(),
	})
	s.enqueueEvent(ctx, eventTypeReviewCompleted, task.OwnerID, map[string]any{
		"correlation_id": correlationID,
		"owner_id":       task.OwnerID,
		"decision":       decision,
		"reason":         reason,
	})

	return ApprovalResponse{
		CorrelationID: correlationID,
		Status:        string(domain.ApprovalCompleted),
		Decision:      decision,
		CompletedAt:   now,
	}, nil
}

// ListPendingReviews feeds the admin review queue.
func (s *Service) ListPendingReviews(ctx context.Context, limit int) ([]PendingReviewItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	tasks, err := s.approvals.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	items := make([]PendingReviewItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, PendingReviewItem{
			CorrelationID:     task.CorrelationID,
			OwnerID:           task.OwnerID,
			Kind:              string(task.Kind),
			ProcessedImageKey: task.ProcessedImageKey,
			RequestedAt:       task.RequestedAt,
			ExpiresAt:         task.ExpiresAt,
		})
	}
	return items, nil
}

// AuditTrail returns the recorded moderation actions for one item: admin
// decisions, expiries, and terminal workflow outcomes.
func (s *Service) AuditTrail(ctx context.Context, correlationID string, limit int) ([]AuditEntry, error) {
	if strings.TrimSpace(correlationID) == "" {
		return nil, fmt.Errorf("%w: correlation id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	records, err := s.audit.ListByCorrelation(ctx, correlationID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, AuditEntry{
			Action: rec.Action,
			Actor:  rec.Actor,
			Detail: json.RawMessage(rec.Detail),
			At:     rec.At,
		})
	}
	return entries, nil
}

// ExpireStaleApprovals auto-rejects reviews whose window closed without a
// decision. Indefinite suspension would either leak review state or block a
// user's content forever. Called periodically by the sweeper.
func (s *Service) ExpireStaleApprovals(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	now := s.nowFn()
	stale, err := s.approvals.ListExpiredPending(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, task := range stale {
		if _, err := s.approvals.ExpirePending(ctx, task.CorrelationID, now); err != nil {
			// Lost to a concurrent completion; the review got a real decision.
			if errors.Is(err, domain.ErrApprovalNotPending) {
				continue
			}
			return expired, err
		}

		reason := "Review request expired without a decision"
		ev := domain.Event{Type: domain.EventTimedOut}
		if _, err := s.resumeRun(ctx, task.RunID, ev, reason); err != nil {
			// The run already carries a real verdict; only the row was stale.
			if errors.Is(err, domain.ErrRunNotSuspended) {
				continue
			}
			return expired, err
		}
		expired++

		s.appendAudit(ctx, task.CorrelationID, "approval.expired", "system", map[string]any{
			"run_id":       task.RunID,
			"requested_at": task.RequestedAt,
			"expired_at":   now,
		})
		s.enqueueEvent(ctx, eventTypeReviewExpired, task.OwnerID, map[string]any{
			"correlation_id": task.CorrelationID,
			"owner_id":       task.OwnerID,
			"requested_at":   task.RequestedAt,
		})
	}

	if expired > 0 {
		slog.Default().InfoContext(ctx, "expired stale approvals",
			"module", "approvals",
			"layer", "application",
			"operation", "expire_stale_approvals",
			"outcome", "success",
			"count", expired,
		)
	}
	return expired, nil
}
