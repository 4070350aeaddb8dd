package postgres

import (
	"context"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
	"gorm.io/gorm"
)

// strikeRepository is append-only. A strike is a plain insert, so concurrent
// rejections for the same user can never lose an increment; the count is
// always a live filter over the trailing window.
type strikeRepository struct {
	db *gorm.DB
}

func (r *strikeRepository) Record(ctx context.Context, strike domain.Strike) error {
	rec := strikeModel{
		UserID:     strike.UserID,
		ItemID:     strike.ItemID,
		Reason:     strike.Reason,
		RecordedAt: strike.RecordedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *strikeRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]domain.Strike, error) {
	var rows []strikeModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("recorded_at > ?", since).
		Order("recorded_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]domain.Strike, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Strike{
			UserID:     row.UserID,
			ItemID:     row.ItemID,
			Reason:     row.Reason,
			RecordedAt: row.RecordedAt,
		})
	}
	return result, nil
}
