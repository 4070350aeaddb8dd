package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

func validSubmission() domain.ContentSubmission {
	return domain.ContentSubmission{
		ItemID:      "item-1",
		OwnerID:     "user-1",
		Kind:        domain.KindClosetItem,
		RawMediaKey: "uploads/item-1.jpg",
	}
}

func TestSubmissionValidate(t *testing.T) {
	t.Parallel()

	if err := validSubmission().Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}

	cases := map[string]func(*domain.ContentSubmission){
		"missing owner": func(s *domain.ContentSubmission) { s.OwnerID = " " },
		"missing media": func(s *domain.ContentSubmission) { s.RawMediaKey = "" },
		"unknown kind":  func(s *domain.ContentSubmission) { s.Kind = "MIXTAPE" },
		"oversize text": func(s *domain.ContentSubmission) { s.Text = strings.Repeat("x", domain.MaxTextLength+1) },
	}
	for name, mutate := range cases {
		s := validSubmission()
		mutate(&s)
		if err := s.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestSubmissionPublicStatusHidesInternals(t *testing.T) {
	t.Parallel()

	cases := map[domain.SubmissionStatus]string{
		domain.StatusPendingModeration: "pending_review",
		domain.StatusPendingReview:     "pending_review",
		domain.StatusFailed:            "pending_review",
		domain.StatusPublished:         "approved",
		domain.StatusRejected:          "rejected",
	}
	for status, want := range cases {
		s := validSubmission()
		s.Status = status
		if got := s.PublicStatus(); got != want {
			t.Fatalf("status %s should present as %q, got %q", status, want, got)
		}
	}
}
