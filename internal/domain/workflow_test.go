package domain_test

import (
	"errors"
	"testing"

	"github.com/stylingadventures/moderation-service/internal/domain"
)

func step(t *testing.T, kind domain.WorkflowKind, state domain.WorkflowState, ev domain.Event) domain.WorkflowState {
	t.Helper()
	next, err := domain.Transition(kind, state, ev)
	if err != nil {
		t.Fatalf("transition from %s on %s failed: %v", state, ev.Type, err)
	}
	return next
}

func TestClosetUploadHappyPath(t *testing.T) {
	t.Parallel()

	completed := domain.Event{Type: domain.EventTaskCompleted}
	state, err := domain.InitialState(domain.WorkflowClosetUpload)
	if err != nil {
		t.Fatalf("initial state: %v", err)
	}

	state = step(t, domain.WorkflowClosetUpload, state, completed)
	if state != domain.StateModerateImage {
		t.Fatalf("expected ModerateImage, got %s", state)
	}
	state = step(t, domain.WorkflowClosetUpload, state, completed)
	state = step(t, domain.WorkflowClosetUpload, state, completed)
	if state != domain.StateNotifyAdmin {
		t.Fatalf("pipeline should reach the review gate, got %s", state)
	}

	state = step(t, domain.WorkflowClosetUpload, state, domain.Event{
		Type:     domain.EventDecision,
		Decision: domain.ApprovalDecisionApprove,
	})
	if state != domain.StatePublishItem {
		t.Fatalf("approval should publish, got %s", state)
	}
	state = step(t, domain.WorkflowClosetUpload, state, completed)
	if state != domain.StatePublished {
		t.Fatalf("expected Published, got %s", state)
	}
	if !domain.IsTerminalState(state) {
		t.Fatalf("Published must be terminal")
	}
}

func TestClosetReviewDefaultDeny(t *testing.T) {
	t.Parallel()

	cases := []string{"", "approve", "APPROVED", "yes", "REJECT"}
	for _, decision := range cases {
		next, err := domain.Transition(domain.WorkflowClosetUpload, domain.StateNotifyAdmin, domain.Event{
			Type:     domain.EventDecision,
			Decision: decision,
		})
		if err != nil {
			t.Fatalf("decision %q: %v", decision, err)
		}
		if next != domain.StateRejected {
			t.Fatalf("decision %q should reject, got %s", decision, next)
		}
	}
}

func TestClosetReviewTimeoutRejects(t *testing.T) {
	t.Parallel()

	next, err := domain.Transition(domain.WorkflowClosetUpload, domain.StateNotifyAdmin, domain.Event{Type: domain.EventTimedOut})
	if err != nil {
		t.Fatalf("timeout transition: %v", err)
	}
	if next != domain.StateRejected {
		t.Fatalf("timeout should reject, got %s", next)
	}
}

func TestBackgroundChangeBranches(t *testing.T) {
	t.Parallel()

	approved, err := domain.Transition(domain.WorkflowBackgroundChange, domain.StateNotifyAdminBg, domain.Event{
		Type:     domain.EventApproval,
		Approved: true,
	})
	if err != nil {
		t.Fatalf("approval transition: %v", err)
	}
	if approved != domain.StateApplyBgChange {
		t.Fatalf("approval should apply the change, got %s", approved)
	}

	done := step(t, domain.WorkflowBackgroundChange, approved, domain.Event{Type: domain.EventTaskCompleted})
	if done != domain.StateSucceeded {
		t.Fatalf("apply should succeed, got %s", done)
	}

	denied, err := domain.Transition(domain.WorkflowBackgroundChange, domain.StateNotifyAdminBg, domain.Event{
		Type: domain.EventApproval,
	})
	if err != nil {
		t.Fatalf("denial transition: %v", err)
	}
	if denied != domain.StateRejectedPass {
		t.Fatalf("denial should reject the pass, got %s", denied)
	}
}

func TestStoryPublishScheduledBranch(t *testing.T) {
	t.Parallel()

	immediate := step(t, domain.WorkflowStoryPublish, domain.StateComposeStory, domain.Event{Type: domain.EventTaskCompleted})
	if immediate != domain.StatePublishStory {
		t.Fatalf("unscheduled story should publish now, got %s", immediate)
	}

	scheduled := step(t, domain.WorkflowStoryPublish, domain.StateComposeStory, domain.Event{
		Type:      domain.EventTaskCompleted,
		Scheduled: true,
	})
	if scheduled != domain.StateMarkScheduled {
		t.Fatalf("scheduled story should be marked, got %s", scheduled)
	}

	if step(t, domain.WorkflowStoryPublish, scheduled, domain.Event{Type: domain.EventTaskCompleted}) != domain.StateSucceeded {
		t.Fatalf("marking should complete the run")
	}
}

func TestTaskFailureFailsAnyNonTerminalState(t *testing.T) {
	t.Parallel()

	states := []struct {
		kind  domain.WorkflowKind
		state domain.WorkflowState
	}{
		{domain.WorkflowClosetUpload, domain.StateSegmentOutfit},
		{domain.WorkflowClosetUpload, domain.StateNotifyAdmin},
		{domain.WorkflowBackgroundChange, domain.StateModerateBg},
		{domain.WorkflowStoryPublish, domain.StatePublishStory},
	}
	for _, tc := range states {
		next, err := domain.Transition(tc.kind, tc.state, domain.Event{Type: domain.EventTaskFailed})
		if err != nil {
			t.Fatalf("failure from %s: %v", tc.state, err)
		}
		if next != domain.StateFailed {
			t.Fatalf("failure from %s should fail the run, got %s", tc.state, next)
		}
	}
}

func TestTerminalStatesRejectFurtherEvents(t *testing.T) {
	t.Parallel()

	_, err := domain.Transition(domain.WorkflowClosetUpload, domain.StatePublished, domain.Event{Type: domain.EventTaskCompleted})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("terminal state should refuse events, got %v", err)
	}
}

func TestUnexpectedEventIsInvalid(t *testing.T) {
	t.Parallel()

	_, err := domain.Transition(domain.WorkflowClosetUpload, domain.StateSegmentOutfit, domain.Event{Type: domain.EventDecision})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("task state should not consume review events, got %v", err)
	}
}

func TestWorkflowForKind(t *testing.T) {
	t.Parallel()

	if domain.WorkflowForKind(domain.KindBackgroundChange) != domain.WorkflowBackgroundChange {
		t.Fatalf("background changes should get the background pipeline")
	}
	if domain.WorkflowForKind(domain.KindClosetItem) != domain.WorkflowClosetUpload {
		t.Fatalf("closet items should get the closet pipeline")
	}
	if domain.WorkflowForKind(domain.KindCollabUpload) != domain.WorkflowClosetUpload {
		t.Fatalf("collab uploads share the closet pipeline")
	}
}
