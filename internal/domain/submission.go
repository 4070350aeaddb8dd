package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// SubmissionKind identifies which approval pipeline a piece of content enters.
type SubmissionKind string

const (
	KindClosetItem       SubmissionKind = "CLOSET_ITEM"
	KindBackgroundChange SubmissionKind = "BACKGROUND_CHANGE"
	KindCollabUpload     SubmissionKind = "COLLAB_UPLOAD"
)

// SubmissionStatus tracks a submission through moderation. Terminal states are
// StatusPublished and StatusRejected; a submission never reaches Published
// without passing through an approve/reject decision first.
type SubmissionStatus string

const (
	StatusPendingModeration SubmissionStatus = "PENDING_MODERATION"
	StatusPendingReview     SubmissionStatus = "PENDING_HUMAN_REVIEW"
	StatusPublished         SubmissionStatus = "PUBLISHED"
	StatusRejected          SubmissionStatus = "REJECTED"
	StatusFailed            SubmissionStatus = "FAILED"
)

const (
	// MaxTextLength caps captions/descriptions; longer text is rejected at intake.
	MaxTextLength = 5000
	// MaxDescriptionLength caps the metadata description field.
	MaxDescriptionLength = 1000
)

// ContentSubmission is the unit of moderation: a closet item, background-change
// request, or collaborator upload. RawMediaKey points at the uploaded object;
// ProcessedMediaKey stays empty until segmentation completes.
type ContentSubmission struct {
	ItemID            string
	OwnerID           string
	Kind              SubmissionKind
	RawMediaKey       string
	ProcessedMediaKey string
	Text              string
	Tags              []string
	ScheduledAt       *time.Time
	Status            SubmissionStatus
	StatusReason      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate enforces intake rules before anything is persisted.
func (s ContentSubmission) Validate() error {
	if strings.TrimSpace(s.ItemID) == "" {
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	switch s.Kind {
	case KindClosetItem, KindBackgroundChange, KindCollabUpload:
	default:
		return fmt.Errorf("%w: unknown submission kind %q", ErrInvalidInput, s.Kind)
	}
	if strings.TrimSpace(s.RawMediaKey) == "" {
		return fmt.Errorf("%w: raw media key is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(s.Text) > MaxTextLength {
		return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, MaxTextLength)
	}
	return nil
}

// PublicStatus maps internal statuses onto the three outcomes an end user is
// allowed to see. Internal failures present as pending so operators can retry
// without leaking error codes to submitters.
func (s ContentSubmission) PublicStatus() string {
	switch s.Status {
	case StatusPublished:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "pending_review"
	}
}
