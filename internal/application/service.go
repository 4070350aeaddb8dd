package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stylingadventures/moderation-service/internal/ports"
)

type Service struct {
	cfg         Config
	submissions ports.SubmissionRepository
	strikes     ports.StrikeRepository
	approvals   ports.ApprovalTaskRepository
	runs        ports.WorkflowRunRepository
	audit       ports.AuditRepository
	outbox      ports.OutboxRepository
	segmenter   ports.Segmenter
	imageScorer ports.ImageScorer
	piiScanner  ports.PIIScanner
	objects     ports.ObjectStore
	riskFlags   ports.RiskFlagStore
	notifier    ports.ReviewNotifier
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Submissions ports.SubmissionRepository
	Strikes     ports.StrikeRepository
	Approvals   ports.ApprovalTaskRepository
	Runs        ports.WorkflowRunRepository
	Audit       ports.AuditRepository
	Outbox      ports.OutboxRepository
	Segmenter   ports.Segmenter
	ImageScorer ports.ImageScorer
	PIIScanner  ports.PIIScanner
	Objects     ports.ObjectStore
	RiskFlags   ports.RiskFlagStore
	Notifier    ports.ReviewNotifier
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:         deps.Config,
		submissions: deps.Submissions,
		strikes:     deps.Strikes,
		approvals:   deps.Approvals,
		runs:        deps.Runs,
		audit:       deps.Audit,
		outbox:      deps.Outbox,
		segmenter:   deps.Segmenter,
		imageScorer: deps.ImageScorer,
		piiScanner:  deps.PIIScanner,
		objects:     deps.Objects,
		riskFlags:   deps.RiskFlags,
		notifier:    deps.Notifier,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// enqueueEvent captures a domain event in the outbox for the worker to flush.
// Delivery failures are logged, never propagated: the triggering operation has
// already committed.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload map[string]any) {
	raw, _ := json.Marshal(payload)
	if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}); err != nil {
		slog.Default().WarnContext(ctx, "failed to enqueue outbox event",
			"module", "application",
			"layer", "application",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

// appendAudit leaves a moderation audit row. Best effort: an audit write
// failure must not fail the admin action it records.
func (s *Service) appendAudit(ctx context.Context, correlationID, action, actor string, detail map[string]any) {
	raw, _ := json.Marshal(detail)
	if err := s.audit.Append(ctx, ports.AuditRecord{
		AuditID:       uuid.New(),
		CorrelationID: correlationID,
		Action:        action,
		Actor:         actor,
		Detail:        raw,
		At:            s.nowFn(),
	}); err != nil {
		slog.Default().WarnContext(ctx, "failed to append audit record",
			"module", "application",
			"layer", "application",
			"operation", "append_audit",
			"outcome", "failure",
			"action", action,
			"error", err,
		)
	}
}
