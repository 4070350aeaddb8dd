package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkflowKind selects one of the three approval pipelines.
type WorkflowKind string

const (
	WorkflowClosetUpload     WorkflowKind = "CLOSET_UPLOAD_APPROVAL"
	WorkflowBackgroundChange WorkflowKind = "BACKGROUND_CHANGE_APPROVAL"
	WorkflowStoryPublish     WorkflowKind = "STORY_PUBLISH"
)

// WorkflowState is the explicit state enum behind each pipeline. States are
// either task states (the executor runs a side effect and reports completion),
// suspension states (the run parks on a task token), or terminal states.
type WorkflowState string

const (
	// Closet upload approval.
	StateSegmentOutfit WorkflowState = "SegmentOutfit"
	StateModerateImage WorkflowState = "ModerateImage"
	StateCheckPII      WorkflowState = "CheckPII"
	StateNotifyAdmin   WorkflowState = "NotifyAdminForApproval"
	StatePublishItem   WorkflowState = "PublishClosetItem"
	StatePublished     WorkflowState = "Published"
	StateRejected      WorkflowState = "Rejected"

	// Background change approval.
	StateValidateBgChange WorkflowState = "ValidateBackgroundChange"
	StateSegmentBgChange  WorkflowState = "SegmentOutfitForBgChange"
	StateModerateBg       WorkflowState = "ModerateBackground"
	StateNotifyAdminBg    WorkflowState = "NotifyAdminBgChange"
	StateApplyBgChange    WorkflowState = "ApplyBackgroundChange"
	StateRejectedPass     WorkflowState = "RejectedPass"

	// Story publishing.
	StateComposeStory  WorkflowState = "ComposeStory"
	StatePublishStory  WorkflowState = "PublishStory"
	StateMarkScheduled WorkflowState = "MarkScheduled"
	StateSucceeded     WorkflowState = "Succeeded"

	// StateFailed terminates a run after a task exhausted its retries.
	StateFailed WorkflowState = "Failed"
)

// EventType drives transitions.
type EventType string

const (
	// EventTaskCompleted reports the current task state's side effect finished.
	EventTaskCompleted EventType = "TASK_COMPLETED"
	// EventTaskFailed reports a task failure after bounded retries.
	EventTaskFailed EventType = "TASK_FAILED"
	// EventDecision resumes a closet-upload review with the admin's verdict.
	EventDecision EventType = "DECISION"
	// EventApproval resumes a background-change review with a boolean verdict.
	EventApproval EventType = "APPROVAL"
	// EventTimedOut expires a review that received no admin decision.
	EventTimedOut EventType = "TIMED_OUT"
)

// Event is the input to Transition. Decision is consulted only by
// EventDecision, Approved only by EventApproval, and Scheduled only by the
// ComposeStory branch.
type Event struct {
	Type      EventType
	Decision  string
	Approved  bool
	Scheduled bool
}

// Transition is the pure (state, event) -> state function behind all three
// pipelines, testable without any orchestrator. Suspension states consume the
// review events; every other non-terminal state consumes task outcomes.
func Transition(kind WorkflowKind, state WorkflowState, ev Event) (WorkflowState, error) {
	if IsTerminalState(state) {
		return state, fmt.Errorf("%w: run already terminal in %s", ErrInvalidTransition, state)
	}
	if ev.Type == EventTaskFailed {
		return StateFailed, nil
	}

	switch kind {
	case WorkflowClosetUpload:
		return closetTransition(state, ev)
	case WorkflowBackgroundChange:
		return bgChangeTransition(state, ev)
	case WorkflowStoryPublish:
		return storyTransition(state, ev)
	default:
		return state, fmt.Errorf("%w: unknown workflow kind %q", ErrInvalidTransition, kind)
	}
}

func closetTransition(state WorkflowState, ev Event) (WorkflowState, error) {
	switch state {
	case StateSegmentOutfit:
		if ev.Type == EventTaskCompleted {
			return StateModerateImage, nil
		}
	case StateModerateImage:
		if ev.Type == EventTaskCompleted {
			return StateCheckPII, nil
		}
	case StateCheckPII:
		if ev.Type == EventTaskCompleted {
			return StateNotifyAdmin, nil
		}
	case StateNotifyAdmin:
		switch ev.Type {
		case EventDecision:
			// Default deny: any value other than exactly APPROVE rejects,
			// including malformed or missing decisions.
			if ev.Decision == ApprovalDecisionApprove {
				return StatePublishItem, nil
			}
			return StateRejected, nil
		case EventTimedOut:
			return StateRejected, nil
		}
	case StatePublishItem:
		if ev.Type == EventTaskCompleted {
			return StatePublished, nil
		}
	}
	return state, transitionError(state, ev)
}

func bgChangeTransition(state WorkflowState, ev Event) (WorkflowState, error) {
	switch state {
	case StateValidateBgChange:
		if ev.Type == EventTaskCompleted {
			return StateSegmentBgChange, nil
		}
	case StateSegmentBgChange:
		if ev.Type == EventTaskCompleted {
			return StateModerateBg, nil
		}
	case StateModerateBg:
		if ev.Type == EventTaskCompleted {
			return StateNotifyAdminBg, nil
		}
	case StateNotifyAdminBg:
		switch ev.Type {
		case EventApproval:
			if ev.Approved {
				return StateApplyBgChange, nil
			}
			return StateRejectedPass, nil
		case EventTimedOut:
			return StateRejectedPass, nil
		}
	case StateApplyBgChange:
		if ev.Type == EventTaskCompleted {
			return StateSucceeded, nil
		}
	}
	return state, transitionError(state, ev)
}

func storyTransition(state WorkflowState, ev Event) (WorkflowState, error) {
	switch state {
	case StateComposeStory:
		if ev.Type == EventTaskCompleted {
			if ev.Scheduled {
				return StateMarkScheduled, nil
			}
			return StatePublishStory, nil
		}
	case StatePublishStory, StateMarkScheduled:
		if ev.Type == EventTaskCompleted {
			return StateSucceeded, nil
		}
	}
	return state, transitionError(state, ev)
}

func transitionError(state WorkflowState, ev Event) error {
	return fmt.Errorf("%w: state %s cannot consume event %s", ErrInvalidTransition, state, ev.Type)
}

// InitialState returns the entry state for a pipeline.
func InitialState(kind WorkflowKind) (WorkflowState, error) {
	switch kind {
	case WorkflowClosetUpload:
		return StateSegmentOutfit, nil
	case WorkflowBackgroundChange:
		return StateValidateBgChange, nil
	case WorkflowStoryPublish:
		return StateComposeStory, nil
	default:
		return "", fmt.Errorf("%w: unknown workflow kind %q", ErrInvalidTransition, kind)
	}
}

// WorkflowForKind maps a submission kind to its pipeline.
func WorkflowForKind(kind SubmissionKind) WorkflowKind {
	if kind == KindBackgroundChange {
		return WorkflowBackgroundChange
	}
	return WorkflowClosetUpload
}

// IsSuspensionState reports whether the state parks on a task token.
func IsSuspensionState(state WorkflowState) bool {
	return state == StateNotifyAdmin || state == StateNotifyAdminBg
}

// IsTerminalState reports whether a run stops in this state.
func IsTerminalState(state WorkflowState) bool {
	switch state {
	case StatePublished, StateRejected, StateRejectedPass, StateSucceeded, StateFailed:
		return true
	}
	return false
}

// RunStatus is the coarse lifecycle of a workflow run. Policy-terminal states
// (Published, Rejected, RejectedPass, Succeeded) complete with StatusSucceeded;
// RunFailed is reserved for task breakage so operators can tell policy
// outcomes from malfunctions.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunSuspended RunStatus = "SUSPENDED"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// SegmentationResult is the segmentation task output carried in the run
// payload under its own namespace.
type SegmentationResult struct {
	InputKey  string `json:"input_key"`
	OutputKey string `json:"output_key"`
}

// PIIResult is the PII-check task output.
type PIIResult struct {
	Flagged bool     `json:"flagged"`
	Fields  []string `json:"fields,omitempty"`
}

// RunPayload is the working state a run carries between tasks. Tasks merge
// their output under a namespace instead of replacing the payload, so
// downstream tasks never lose the item snapshot.
type RunPayload struct {
	Item         ItemSnapshot        `json:"item"`
	Segmentation *SegmentationResult `json:"segmentation,omitempty"`
	Moderation   *ModerationDecision `json:"moderation,omitempty"`
	PII          *PIIResult          `json:"pii,omitempty"`
}

// ItemSnapshot pins the submission fields tasks need, taken at run start.
type ItemSnapshot struct {
	ItemID      string         `json:"item_id"`
	OwnerID     string         `json:"owner_id"`
	Kind        SubmissionKind `json:"kind"`
	RawMediaKey string         `json:"raw_media_key"`
	Text        string         `json:"text,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
}

// WorkflowRun is one durable execution of a pipeline.
type WorkflowRun struct {
	RunID         string
	Kind          WorkflowKind
	ItemID        string
	OwnerID       string
	State         WorkflowState
	Status        RunStatus
	Payload       RunPayload
	Attempt       int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MarshalPayload serializes the working state for storage.
func (r WorkflowRun) MarshalPayload() ([]byte, error) {
	return json.Marshal(r.Payload)
}
