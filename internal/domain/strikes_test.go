package domain_test

import (
	"testing"
	"time"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

func TestStrikeQualifiesBoundary(t *testing.T) {
	t.Parallel()

	now := time.Now()
	if domain.StrikeQualifies(now.Add(-domain.StrikeWindow), now) {
		t.Fatalf("a strike exactly the window old must not qualify")
	}
	if !domain.StrikeQualifies(now.Add(-domain.StrikeWindow+time.Second), now) {
		t.Fatalf("a strike just inside the window must qualify")
	}
}

func TestNewRepeatOffenderStatus(t *testing.T) {
	t.Parallel()

	now := time.Now()
	recent := now.Add(-24 * time.Hour)
	older := now.Add(-48 * time.Hour)
	aged := now.Add(-91 * 24 * time.Hour)

	status := domain.NewRepeatOffenderStatus("user-1", []domain.Strike{
		{UserID: "user-1", RecordedAt: older},
		{UserID: "user-1", RecordedAt: recent},
		{UserID: "user-1", RecordedAt: aged},
	}, now)

	if status.StrikeCount != 2 {
		t.Fatalf("aged-out strikes must not count, got %d", status.StrikeCount)
	}
	if status.IsRepeatOffender {
		t.Fatalf("two strikes should not make a repeat offender")
	}
	if status.LastStrikeAt == nil || !status.LastStrikeAt.Equal(recent) {
		t.Fatalf("last strike should be the newest qualifying one, got %v", status.LastStrikeAt)
	}

	three := domain.NewRepeatOffenderStatus("user-2", []domain.Strike{
		{RecordedAt: recent}, {RecordedAt: recent}, {RecordedAt: recent},
	}, now)
	if !three.IsRepeatOffender {
		t.Fatalf("three qualifying strikes should flag a repeat offender")
	}

	clean := domain.NewRepeatOffenderStatus("user-3", nil, now)
	if clean.StrikeCount != 0 || clean.IsRepeatOffender || clean.LastStrikeAt != nil {
		t.Fatalf("no history should report a clean status, got %+v", clean)
	}
}
