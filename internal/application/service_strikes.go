package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

// RepeatOffenderStatus reports the live strike count for a user over the
// trailing window. New users with no history report a clean status.
func (s *Service) RepeatOffenderStatus(ctx context.Context, userID string) (domain.RepeatOffenderStatus, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.RepeatOffenderStatus{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	history, err := s.strikes.ListSince(ctx, userID, now.Add(-domain.StrikeWindow))
	if err != nil {
		return domain.RepeatOffenderStatus{}, fmt.Errorf("list strikes: %w", err)
	}
	return domain.NewRepeatOffenderStatus(userID, history, now), nil
}
