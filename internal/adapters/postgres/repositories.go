package postgres

import (
	"errors"

	"github.com/stylingadventures/moderation-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Submissions ports.SubmissionRepository
	Strikes     ports.StrikeRepository
	Approvals   ports.ApprovalTaskRepository
	Runs        ports.WorkflowRunRepository
	Audit       ports.AuditRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Submissions: &submissionRepository{db: db},
		Strikes:     &strikeRepository{db: db},
		Approvals:   &approvalRepository{db: db},
		Runs:        &workflowRunRepository{db: db},
		Audit:       &auditRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
