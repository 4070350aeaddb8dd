package postgres

import (
	"context"

	"github.com/stylingadventures/moderation-service/internal/ports"
	"gorm.io/gorm"
)

// auditRepository is append-only; rows are never updated or deleted.
type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Append(ctx context.Context, record ports.AuditRecord) error {
	rec := auditModel{
		AuditID:       record.AuditID,
		CorrelationID: record.CorrelationID,
		Action:        record.Action,
		Actor:         record.Actor,
		Detail:        string(record.Detail),
		At:            record.At,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *auditRepository) ListByCorrelation(ctx context.Context, correlationID string, limit int) ([]ports.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []auditModel
	if err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]ports.AuditRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, ports.AuditRecord{
			AuditID:       row.AuditID,
			CorrelationID: row.CorrelationID,
			Action:        row.Action,
			Actor:         row.Actor,
			Detail:        []byte(row.Detail),
			At:            row.At,
		})
	}
	return result, nil
}
