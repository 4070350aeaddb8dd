package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stylingadventures/moderation-service/internal/domain"
)

// SubmissionRepository persists content submissions through their moderation
// lifecycle.
type SubmissionRepository interface {
	Create(ctx context.Context, submission domain.ContentSubmission) error
	GetByID(ctx context.Context, itemID string) (domain.ContentSubmission, error)
	SetProcessedMediaKey(ctx context.Context, itemID, processedKey string, at time.Time) error
	// UpdateStatus sets the status and reason unconditionally; terminal
	// transitions are guarded upstream by the workflow state machine.
	UpdateStatus(ctx context.Context, itemID string, status domain.SubmissionStatus, reason string, at time.Time) error
	ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit int) ([]domain.ContentSubmission, error)
}

// StrikeRepository is append-only: recording a strike is a plain insert, which
// keeps concurrent rejections for the same user race-free without a counter
// row. The count is a live filter over the trailing window.
type StrikeRepository interface {
	Record(ctx context.Context, strike domain.Strike) error
	ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Strike, error)
}

// ApprovalTaskRepository persists parked human-review continuations.
// CompletePending and ExpirePending are conditional updates on status PENDING;
// implementations must report domain.ErrApprovalNotPending when the row is
// missing or no longer pending, so a token is consumed at most once.
type ApprovalTaskRepository interface {
	CreatePending(ctx context.Context, task domain.ApprovalTask) error
	GetPending(ctx context.Context, correlationID string) (domain.ApprovalTask, error)
	CompletePending(ctx context.Context, correlationID, decision, reason, reviewedBy string, at time.Time) (domain.ApprovalTask, error)
	ExpirePending(ctx context.Context, correlationID string, at time.Time) (domain.ApprovalTask, error)
	ListPending(ctx context.Context, limit int) ([]domain.ApprovalTask, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]domain.ApprovalTask, error)
}

// WorkflowRunRepository persists durable workflow runs. ClaimRunnable hands a
// batch of due RUNNING runs to exactly one worker using claim tokens, the same
// contention pattern the outbox uses. Advance is a compare-and-swap on the
// current state so two workers can never double-apply a transition.
type WorkflowRunRepository interface {
	Create(ctx context.Context, run domain.WorkflowRun) error
	GetByID(ctx context.Context, runID string) (domain.WorkflowRun, error)
	GetByItemID(ctx context.Context, itemID string) (domain.WorkflowRun, error)
	ClaimRunnable(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]domain.WorkflowRun, error)
	Advance(ctx context.Context, run domain.WorkflowRun, fromState domain.WorkflowState) error
}

// AuditRecord is one moderation audit row: admin decisions, expiries, and
// terminal workflow outcomes all leave a trace.
type AuditRecord struct {
	AuditID       uuid.UUID
	CorrelationID string
	Action        string
	Actor         string
	Detail        []byte
	At            time.Time
}

// AuditRepository is append-only.
type AuditRepository interface {
	Append(ctx context.Context, record AuditRecord) error
	ListByCorrelation(ctx context.Context, correlationID string, limit int) ([]AuditRecord, error)
}

// OutboxEvent is a domain event captured transactionally for later delivery.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord is the stored form of an outbox event plus delivery bookkeeping.
type OutboxRecord struct {
	EventID     uuid.UUID
	EventType   string
	Payload     []byte
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// OutboxRepository separates transactional writes from broker delivery.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, eventID uuid.UUID, reason string, at time.Time) error
}
