package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
	"gorm.io/gorm"
)

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission domain.ContentSubmission) error {
	rec, err := toSubmissionModel(submission)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, itemID string) (domain.ContentSubmission, error) {
	var rec submissionModel
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ContentSubmission{}, domain.ErrNotFound
		}
		return domain.ContentSubmission{}, err
	}
	return toDomainSubmission(rec)
}

func (r *submissionRepository) SetProcessedMediaKey(ctx context.Context, itemID, processedKey string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("item_id = ?", itemID).
		Updates(map[string]any{
			"processed_media_key": processedKey,
			"updated_at":          at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, itemID string, status domain.SubmissionStatus, reason string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("item_id = ?", itemID).
		Updates(map[string]any{
			"status":        string(status),
			"status_reason": reason,
			"updated_at":    at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *submissionRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit int) ([]domain.ContentSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []submissionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]domain.ContentSubmission, 0, len(rows))
	for _, row := range rows {
		submission, err := toDomainSubmission(row)
		if err != nil {
			return nil, err
		}
		result = append(result, submission)
	}
	return result, nil
}

func toSubmissionModel(s domain.ContentSubmission) (submissionModel, error) {
	tags, err := json.Marshal(s.Tags)
	if err != nil {
		return submissionModel{}, err
	}
	return submissionModel{
		ItemID:            s.ItemID,
		OwnerID:           s.OwnerID,
		Kind:              string(s.Kind),
		RawMediaKey:       s.RawMediaKey,
		ProcessedMediaKey: s.ProcessedMediaKey,
		Text:              s.Text,
		Tags:              string(tags),
		ScheduledAt:       s.ScheduledAt,
		Status:            string(s.Status),
		StatusReason:      s.StatusReason,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func toDomainSubmission(rec submissionModel) (domain.ContentSubmission, error) {
	var tags []string
	if rec.Tags != "" {
		if err := json.Unmarshal([]byte(rec.Tags), &tags); err != nil {
			return domain.ContentSubmission{}, err
		}
	}
	return domain.ContentSubmission{
		ItemID:            rec.ItemID,
		OwnerID:           rec.OwnerID,
		Kind:              domain.SubmissionKind(rec.Kind),
		RawMediaKey:       rec.RawMediaKey,
		ProcessedMediaKey: rec.ProcessedMediaKey,
		Text:              rec.Text,
		Tags:              tags,
		ScheduledAt:       rec.ScheduledAt,
		Status:            domain.SubmissionStatus(rec.Status),
		StatusReason:      rec.StatusReason,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}, nil
}
