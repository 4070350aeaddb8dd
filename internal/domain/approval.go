package domain

import "time"

// ApprovalStatus tracks the lifecycle of a parked human-review request.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalCompleted ApprovalStatus = "COMPLETED"
	ApprovalExpired   ApprovalStatus = "EXPIRED"
)

// ApprovalDecision is the admin verdict. Anything other than exactly
// DecisionApprove routes to rejection (default deny).
const (
	ApprovalDecisionApprove = "APPROVE"
	ApprovalDecisionReject  = "REJECT"
)

// ApprovalTask is the persisted continuation for a suspended workflow run: a
// database row standing in for the blocked task, so resumption survives
// restarts and is retry-safe. Exactly one pending task exists per in-flight
// review; the PENDING -> COMPLETED transition happens at most once.
type ApprovalTask struct {
	CorrelationID     string
	TaskToken         string
	RunID             string
	OwnerID           string
	Kind              SubmissionKind
	Status            ApprovalStatus
	Decision          string
	Reason            string
	ReviewedBy        string
	ProcessedImageKey string
	RequestedAt       time.Time
	ExpiresAt         time.Time
	CompletedAt       *time.Time
}

// Expired reports whether the review window has closed.
func (t ApprovalTask) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
