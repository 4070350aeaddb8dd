package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

// AnalyzeContent runs the classifier over every channel of a submission: text,
// metadata, the external image scorer, and the per-user minors-risk flag.
// Analyses are ephemeral; nothing is persisted here.
func (s *Service) AnalyzeContent(ctx context.Context, req AnalyzeRequest) (domain.ContentAnalysis, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return domain.ContentAnalysis{}, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}

	analysis := domain.ContentAnalysis{
		Text:     domain.AnalyzeText(req.Text),
		Metadata: domain.AnalyzeMetadata(req.Tags, req.Description),
	}

	if strings.TrimSpace(req.MediaKey) != "" {
		imageScore, err := s.imageScorer.Score(ctx, req.MediaKey)
		if err != nil {
			return domain.ContentAnalysis{}, fmt.Errorf("%w: image scoring: %v", domain.ErrTaskInvocation, err)
		}
		analysis.Image = imageScore
	}

	flagged, err := s.riskFlags.MinorsRisk(ctx, req.OwnerID)
	if err != nil {
		// A missing flag store must not block moderation; absent flag means
		// the shadow rule simply cannot fire for this decision.
		slog.Default().WarnContext(ctx, "minors-risk lookup unavailable",
			"module", "moderation",
			"layer", "application",
			"operation", "analyze_content",
			"outcome", "degraded",
			"error", err,
		)
	}
	analysis.MinorsRisk = flagged

	analysis.ComputeOverallConfidence()
	return analysis, nil
}

// AnalyzeAndDecide is the composite synchronous entry point the API layer
// calls per content mutation: classify, band by confidence and strike history,
// and record a strike when the decision demands one.
func (s *Service) AnalyzeAndDecide(ctx context.Context, req AnalyzeRequest) (domain.ModerationDecision, error) {
	analysis, err := s.AnalyzeContent(ctx, req)
	if err != nil {
		return domain.ModerationDecision{}, err
	}

	status, err := s.RepeatOffenderStatus(ctx, req.OwnerID)
	if err != nil {
		return domain.ModerationDecision{}, err
	}

	now := s.nowFn()
	decision, recordStrike := domain.Decide(req.ItemID, analysis, status.StrikeCount, s.cfg.Thresholds, now)

	if recordStrike {
		if err := s.strikes.Record(ctx, domain.Strike{
			UserID:     req.OwnerID,
			ItemID:     req.ItemID,
			Reason:     decision.Reason,
			RecordedAt: now,
		}); err != nil {
			return domain.ModerationDecision{}, fmt.Errorf("record strike: %w", err)
		}
	}

	s.enqueueEvent(ctx, eventTypeDecisionRecorded, req.OwnerID, map[string]any{
		"item_id":           req.ItemID,
		"owner_id":          req.OwnerID,
		"status":            decision.Status,
		"confidence":        decision.Confidence,
		"shadow_moderation": decision.ShadowModeration,
		"strike_count":      decision.StrikeCount,
		"decided_at":        now,
	})

	return decision, nil
}
