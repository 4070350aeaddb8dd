package postgres

import (
	"time"

	"github.com/google/uuid"
)

type submissionModel struct {
	ItemID            string     `gorm:"column:item_id;primaryKey"`
	OwnerID           string     `gorm:"column:owner_id"`
	Kind              string     `gorm:"column:kind"`
	RawMediaKey       string     `gorm:"column:raw_media_key"`
	ProcessedMediaKey string     `gorm:"column:processed_media_key"`
	Text              string     `gorm:"column:text"`
	Tags              string     `gorm:"column:tags;type:jsonb"`
	ScheduledAt       *time.Time `gorm:"column:scheduled_at"`
	Status            string     `gorm:"column:status"`
	StatusReason      string     `gorm:"column:status_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string { return "content_submissions" }

type strikeModel struct {
	StrikeID   int64     `gorm:"column:strike_id;primaryKey"`
	UserID     string    `gorm:"column:user_id"`
	ItemID     string    `gorm:"column:item_id"`
	Reason     string    `gorm:"column:reason"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (strikeModel) TableName() string { return "moderation_strikes" }

type approvalTaskModel struct {
	CorrelationID     string     `gorm:"column:correlation_id;primaryKey"`
	TaskToken         string     `gorm:"column:task_token"`
	RunID             string     `gorm:"column:run_id"`
	OwnerID           string     `gorm:"column:owner_id"`
	Kind              string     `gorm:"column:kind"`
	Status            string     `gorm:"column:status"`
	Decision          string     `gorm:"column:decision"`
	Reason            string     `gorm:"column:reason"`
	ReviewedBy        string     `gorm:"column:reviewed_by"`
	ProcessedImageKey string     `gorm:"column:processed_image_key"`
	RequestedAt       time.Time  `gorm:"column:requested_at"`
	ExpiresAt         time.Time  `gorm:"column:expires_at"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
}

func (approvalTaskModel) TableName() string { return "approval_tasks" }

type workflowRunModel struct {
	RunID         string    `gorm:"column:run_id;primaryKey"`
	Kind          string    `gorm:"column:kind"`
	ItemID        string    `gorm:"column:item_id"`
	OwnerID       string    `gorm:"column:owner_id"`
	State         string    `gorm:"column:state"`
	Status        string    `gorm:"column:status"`
	Payload       string    `gorm:"column:payload;type:jsonb"`
	Attempt       int       `gorm:"column:attempt"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at"`
	LastError     string    `gorm:"column:last_error"`
	ClaimToken    *string   `gorm:"column:claim_token"`
	ClaimUntil    *time.Time `gorm:"column:claim_until"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (workflowRunModel) TableName() string { return "workflow_runs" }

type outboxModel struct {
	EventID      uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    *string    `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
	ClaimToken   *string    `gorm:"column:claim_token"`
	ClaimUntil   *time.Time `gorm:"column:claim_until"`
}

func (outboxModel) TableName() string { return "moderation_outbox" }

type auditModel struct {
	AuditID       uuid.UUID `gorm:"column:audit_id;type:uuid;primaryKey"`
	CorrelationID string    `gorm:"column:correlation_id"`
	Action        string    `gorm:"column:action"`
	Actor         string    `gorm:"column:actor"`
	Detail        string    `gorm:"column:detail;type:jsonb"`
	At            time.Time `gorm:"column:at"`
}

func (auditModel) TableName() string { return "moderation_audit" }
