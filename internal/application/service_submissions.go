package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stylingadventures/moderation-service/internal/domain"
)

// SubmitContent accepts a submission, persists it as pending, and starts its
// approval run. Validation failures surface immediately; nothing is persisted
// for an invalid submission.
func (s *Service) SubmitContent(ctx context.Context, req SubmitContentRequest) (SubmitContentResponse, error) {
	now := s.nowFn()
	submission := domain.ContentSubmission{
		ItemID:      uuid.NewString(),
		OwnerID:     strings.TrimSpace(req.OwnerID),
		Kind:        domain.SubmissionKind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		RawMediaKey: strings.TrimSpace(req.MediaKey),
		Text:        req.Text,
		Tags:        req.Tags,
		ScheduledAt: req.ScheduledAt,
		Status:      domain.StatusPendingModeration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := submission.Validate(); err != nil {
		return SubmitContentResponse{}, err
	}

	if err := s.submissions.Create(ctx, submission); err != nil {
		return SubmitContentResponse{}, fmt.Errorf("create submission: %w", err)
	}

	run, err := s.startRun(ctx, domain.WorkflowForKind(submission.Kind), domain.ItemSnapshot{
		ItemID:      submission.ItemID,
		OwnerID:     submission.OwnerID,
		Kind:        submission.Kind,
		RawMediaKey: submission.RawMediaKey,
		Text:        submission.Text,
		Tags:        submission.Tags,
		ScheduledAt: submission.ScheduledAt,
	})
	if err != nil {
		return SubmitContentResponse{}, err
	}

	s.enqueueEvent(ctx, eventTypeSubmissionReceived, submission.OwnerID, map[string]any{
		"item_id":  submission.ItemID,
		"owner_id": submission.OwnerID,
		"kind":     submission.Kind,
		"run_id":   run.RunID,
	})

	return SubmitContentResponse{
		ItemID: submission.ItemID,
		RunID:  run.RunID,
		Status: submission.PublicStatus(),
	}, nil
}

// GetSubmission returns the owner-visible view of a submission. Internal
// failure states surface as pending, never as error codes.
func (s *Service) GetSubmission(ctx context.Context, itemID string) (SubmissionStatusResponse, error) {
	if strings.TrimSpace(itemID) == "" {
		return SubmissionStatusResponse{}, fmt.Errorf("%w: item id is required", domain.ErrInvalidInput)
	}
	submission, err := s.submissions.GetByID(ctx, itemID)
	if err != nil {
		return SubmissionStatusResponse{}, err
	}

	resp := SubmissionStatusResponse{
		ItemID:      submission.ItemID,
		Status:      submission.PublicStatus(),
		SubmittedAt: submission.CreatedAt,
		UpdatedAt:   submission.UpdatedAt,
	}
	// Rejection reasons are owner-visible; shadow rejections carry the same
	// reason shape as ordinary ones so nothing signals the difference.
	if submission.Status == domain.StatusRejected {
		resp.Reason = submission.StatusReason
	}
	return resp, nil
}

// StartStoryPublish starts the story-publish pipeline. Scheduled stories take
// the mark-scheduled branch, which records intent only; timed publication
// belongs to an external scheduler.
func (s *Service) StartStoryPublish(ctx context.Context, req StoryPublishRequest) (StoryPublishResponse, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return StoryPublishResponse{}, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.MediaKey) == "" {
		return StoryPublishResponse{}, fmt.Errorf("%w: media key is required", domain.ErrInvalidInput)
	}

	storyID := uuid.NewString()
	run, err := s.startRun(ctx, domain.WorkflowStoryPublish, domain.ItemSnapshot{
		ItemID:      storyID,
		OwnerID:     strings.TrimSpace(req.OwnerID),
		RawMediaKey: strings.TrimSpace(req.MediaKey),
		Text:        req.Caption,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		return StoryPublishResponse{}, err
	}

	return StoryPublishResponse{
		StoryID:   storyID,
		RunID:     run.RunID,
		Scheduled: req.ScheduledAt != nil,
	}, nil
}

// ListSubmissionsByStatus feeds moderator dashboards: submissions in one
// internal lifecycle state, up to limit. It exposes raw statuses, so the
// transport keeps it behind the moderator guard.
func (s *Service) ListSubmissionsByStatus(ctx context.Context, status string, limit int) ([]SubmissionSummary, error) {
	st := domain.SubmissionStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch st {
	case domain.StatusPendingModeration, domain.StatusPendingReview,
		domain.StatusPublished, domain.StatusRejected, domain.StatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown submission status %q", domain.ErrInvalidInput, status)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	subs, err := s.submissions.ListByStatus(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SubmissionSummary, 0, len(subs))
	for _, sub := range subs {
		out = append(out, SubmissionSummary{
			ItemID:      sub.ItemID,
			OwnerID:     sub.OwnerID,
			Kind:        string(sub.Kind),
			Status:      string(sub.Status),
			Reason:      sub.StatusReason,
			SubmittedAt: sub.CreatedAt,
			UpdatedAt:   sub.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Service) startRun(ctx context.Context, kind domain.WorkflowKind, snapshot domain.ItemSnapshot) (domain.WorkflowRun, error) {
	initial, err := domain.InitialState(kind)
	if err != nil {
		return domain.WorkflowRun{}, err
	}

	now := s.nowFn()
	run := domain.WorkflowRun{
		RunID:         uuid.NewString(),
		Kind:          kind,
		ItemID:        snapshot.ItemID,
		OwnerID:       snapshot.OwnerID,
		State:         initial,
		Status:        domain.RunRunning,
		Payload:       domain.RunPayload{Item: snapshot},
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return domain.WorkflowRun{}, fmt.Errorf("create workflow run: %w", err)
	}
	return run, nil
}
