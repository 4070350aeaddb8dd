package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type workflowRunRepository struct {
	db *gorm.DB
}

func (r *workflowRunRepository) Create(ctx context.Context, run domain.WorkflowRun) error {
	rec, err := toRunModel(run)
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

func (r *workflowRunRepository) GetByID(ctx context.Context, runID string) (domain.WorkflowRun, error) {
	var rec workflowRunModel
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WorkflowRun{}, domain.ErrNotFound
		}
		return domain.WorkflowRun{}, err
	}
	return toDomainRun(rec)
}

func (r *workflowRunRepository) GetByItemID(ctx context.Context, itemID string) (domain.WorkflowRun, error) {
	var rec workflowRunModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.WorkflowRun{}, domain.ErrNotFound
		}
		return domain.WorkflowRun{}, err
	}
	return toDomainRun(rec)
}

// ClaimRunnable hands due RUNNING runs to exactly one worker. Same contention
// pattern as the outbox: stamp a claim token under SKIP LOCKED, then read back
// the stamped rows.
func (r *workflowRunRepository) ClaimRunnable(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]domain.WorkflowRun, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, fmt.Errorf("claim token is required")
	}

	now := time.Now().UTC()
	var rows []workflowRunModel
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&workflowRunModel{}).
			Select("run_id").
			Where("status = ?", string(domain.RunRunning)).
			Where("next_attempt_at <= ?", now).
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("next_attempt_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := tx.Model(&workflowRunModel{}).
			Where("run_id IN (?)", subquery).
			Updates(map[string]any{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return tx.Where("claim_token = ?", claimToken).
			Where("status = ?", string(domain.RunRunning)).
			Order("next_attempt_at ASC").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}

	result := make([]domain.WorkflowRun, 0, len(rows))
	for _, row := range rows {
		run, err := toDomainRun(row)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}
	return result, nil
}

// Advance is a compare-and-swap on the recorded state. A concurrent advance
// already moved the run, so zero affected rows reports ErrConcurrentUpdate
// rather than double-applying a transition.
func (r *workflowRunRepository) Advance(ctx context.Context, run domain.WorkflowRun, fromState domain.WorkflowState) error {
	payload, err := run.MarshalPayload()
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&workflowRunModel{}).
		Where("run_id = ?", run.RunID).
		Where("state = ?", string(fromState)).
		Updates(map[string]any{
			"state":           string(run.State),
			"status":          string(run.Status),
			"payload":         string(payload),
			"attempt":         run.Attempt,
			"next_attempt_at": run.NextAttemptAt,
			"last_error":      run.LastError,
			"claim_token":     nil,
			"claim_until":     nil,
			"updated_at":      run.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func toRunModel(run domain.WorkflowRun) (workflowRunModel, error) {
	payload, err := run.MarshalPayload()
	if err != nil {
		return workflowRunModel{}, err
	}
	return workflowRunModel{
		RunID:         run.RunID,
		Kind:          string(run.Kind),
		ItemID:        run.ItemID,
		OwnerID:       run.OwnerID,
		State:         string(run.State),
		Status:        string(run.Status),
		Payload:       string(payload),
		Attempt:       run.Attempt,
		NextAttemptAt: run.NextAttemptAt,
		LastError:     run.LastError,
		CreatedAt:     run.CreatedAt,
		UpdatedAt:     run.UpdatedAt,
	}, nil
}

func toDomainRun(rec workflowRunModel) (domain.WorkflowRun, error) {
	var payload domain.RunPayload
	if rec.Payload != "" {
		if err := json.Unmarshal([]byte(rec.Payload), &payload); err != nil {
			return domain.WorkflowRun{}, fmt.Errorf("decode run payload: %w", err)
		}
	}
	return domain.WorkflowRun{
		RunID:         rec.RunID,
		Kind:          domain.WorkflowKind(rec.Kind),
		ItemID:        rec.ItemID,
		OwnerID:       rec.OwnerID,
		State:         domain.WorkflowState(rec.State),
		Status:        domain.RunStatus(rec.Status),
		Payload:       payload,
		Attempt:       rec.Attempt,
		NextAttemptAt: rec.NextAttemptAt,
		LastError:     rec.LastError,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}
