package application

import (
	"encoding/json"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

type Config struct {
	// ReviewExpiry bounds how long a run may stay parked on human review
	// before the sweeper auto-rejects it.
	ReviewExpiry time.Duration
	// MaxTaskAttempts bounds retries of a failing workflow task before the
	// run is failed and the owner notified.
	MaxTaskAttempts int
	// RetryBaseDelay is the first retry delay; attempts back off exponentially.
	RetryBaseDelay time.Duration
	// ClaimTTL is how long a worker's claim on a run or outbox batch holds.
	ClaimTTL time.Duration
	// PublishedPrefix is the object-storage namespace for published content.
	PublishedPrefix string
	// ProcessedPrefix is the namespace segmentation writes into.
	ProcessedPrefix string

	Thresholds domain.Thresholds
}

type SubmitContentRequest struct {
	OwnerID     string     `json:"owner_id"`
	Kind        string     `json:"kind"`
	MediaKey    string     `json:"media_key"`
	Text        string     `json:"text"`
	Tags        []string   `json:"tags"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type SubmitContentResponse struct {
	ItemID string `json:"item_id"`
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

type SubmissionStatusResponse struct {
	ItemID      string    `json:"item_id"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type StoryPublishRequest struct {
	OwnerID     string     `json:"owner_id"`
	MediaKey    string     `json:"media_key"`
	Caption     string     `json:"caption"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type StoryPublishResponse struct {
	StoryID   string `json:"story_id"`
	RunID     string `json:"run_id"`
	Scheduled bool   `json:"scheduled"`
}

// AnalyzeRequest is the synchronous moderation entry point used by the API
// layer per content-creation mutation, independent of any workflow run.
type AnalyzeRequest struct {
	ItemID      string   `json:"item_id"`
	OwnerID     string   `json:"owner_id"`
	Text        string   `json:"text"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	MediaKey    string   `json:"media_key"`
}

type ApprovalRequest struct {
	CorrelationID string `json:"correlation_id"`
	Decision      string `json:"decision"`
	Reason        string `json:"reason"`
	ReviewedBy    string `json:"reviewed_by"`
}

type ApprovalResponse struct {
	CorrelationID string    `json:"correlation_id"`
	Status        string    `json:"status"`
	Decision      string    `json:"decision"`
	CompletedAt   time.Time `json:"completed_at"`
}

// SubmissionSummary is the moderator-facing listing row; unlike the owner
// view it exposes the raw internal status.
type SubmissionSummary struct {
	ItemID      string    `json:"item_id"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditEntry is one recorded moderation action on an item.
type AuditEntry struct {
	Action string          `json:"action"`
	Actor  string          `json:"actor"`
	Detail json.RawMessage `json:"detail,omitempty"`
	At     time.Time       `json:"at"`
}

type PendingReviewItem struct {
	CorrelationID     string    `json:"correlation_id"`
	OwnerID           string    `json:"owner_id"`
	Kind              string    `json:"kind"`
	ProcessedImageKey string    `json:"processed_image_key,omitempty"`
	RequestedAt       time.Time `json:"requested_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}
