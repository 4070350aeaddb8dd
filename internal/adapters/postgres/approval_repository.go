package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
	"gorm.io/gorm"
)

type approvalRepository struct {
	db *gorm.DB
}

func (r *approvalRepository) CreatePending(ctx context.Context, task domain.ApprovalTask) error {
	rec := toApprovalModel(task)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *approvalRepository) GetPending(ctx context.Context, correlationID string) (domain.ApprovalTask, error) {
	var rec approvalTaskModel
	if err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Where("status = ?", string(domain.ApprovalPending)).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ApprovalTask{}, domain.ErrApprovalNotPending
		}
		return domain.ApprovalTask{}, err
	}
	return toDomainApproval(rec), nil
}

// CompletePending consumes the pending row exactly once. The status guard in
// the WHERE clause is the at-most-once boundary: a lost race or an
// already-consumed token shows as zero affected rows, never a double apply.
func (r *approvalRepository) CompletePending(ctx context.Context, correlationID, decision, reason, reviewedBy string, at time.Time) (domain.ApprovalTask, error) {
	result := r.db.WithContext(ctx).
		Model(&approvalTaskModel{}).
		Where("correlation_id = ?", correlationID).
		Where("status = ?", string(domain.ApprovalPending)).
		Updates(map[string]any{
			"status":       string(domain.ApprovalCompleted),
			"decision":     decision,
			"reason":       reason,
			"reviewed_by":  reviewedBy,
			"completed_at": at,
		})
	if result.Error != nil {
		return domain.ApprovalTask{}, result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ApprovalTask{}, domain.ErrApprovalNotPending
	}

	var rec approvalTaskModel
	if err := r.db.WithContext(ctx).Where("correlation_id = ?", correlationID).Take(&rec).Error; err != nil {
		return domain.ApprovalTask{}, err
	}
	return toDomainApproval(rec), nil
}

func (r *approvalRepository) ExpirePending(ctx context.Context, correlationID string, at time.Time) (domain.ApprovalTask, error) {
	result := r.db.WithContext(ctx).
		Model(&approvalTaskModel{}).
		Where("correlation_id = ?", correlationID).
		Where("status = ?", string(domain.ApprovalPending)).
		Updates(map[string]any{
			"status":       string(domain.ApprovalExpired),
			"completed_at": at,
		})
	if result.Error != nil {
		return domain.ApprovalTask{}, result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ApprovalTask{}, domain.ErrApprovalNotPending
	}

	var rec approvalTaskModel
	if err := r.db.WithContext(ctx).Where("correlation_id = ?", correlationID).Take(&rec).Error; err != nil {
		return domain.ApprovalTask{}, err
	}
	return toDomainApproval(rec), nil
}

func (r *approvalRepository) ListPending(ctx context.Context, limit int) ([]domain.ApprovalTask, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []approvalTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.ApprovalPending)).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainApprovals(rows), nil
}

func (r *approvalRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]domain.ApprovalTask, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []approvalTaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.ApprovalPending)).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainApprovals(rows), nil
}

func toApprovalModel(t domain.ApprovalTask) approvalTaskModel {
	return approvalTaskModel{
		CorrelationID:     t.CorrelationID,
		TaskToken:         t.TaskToken,
		RunID:             t.RunID,
		OwnerID:           t.OwnerID,
		Kind:              string(t.Kind),
		Status:            string(t.Status),
		Decision:          t.Decision,
		Reason:            t.Reason,
		ReviewedBy:        t.ReviewedBy,
		ProcessedImageKey: t.ProcessedImageKey,
		RequestedAt:       t.RequestedAt,
		ExpiresAt:         t.ExpiresAt,
		CompletedAt:       t.CompletedAt,
	}
}

func toDomainApproval(rec approvalTaskModel) domain.ApprovalTask {
	return domain.ApprovalTask{
		CorrelationID:     rec.CorrelationID,
		TaskToken:         rec.TaskToken,
		RunID:             rec.RunID,
		OwnerID:           rec.OwnerID,
		Kind:              domain.SubmissionKind(rec.Kind),
		Status:            domain.ApprovalStatus(rec.Status),
		Decision:          rec.Decision,
		Reason:            rec.Reason,
		ReviewedBy:        rec.ReviewedBy,
		ProcessedImageKey: rec.ProcessedImageKey,
		RequestedAt:       rec.RequestedAt,
		ExpiresAt:         rec.ExpiresAt,
		CompletedAt:       rec.CompletedAt,
	}
}

func toDomainApprovals(rows []approvalTaskModel) []domain.ApprovalTask {
	result := make([]domain.ApprovalTask, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainApproval(row))
	}
	return result
}
