package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput marks malformed submissions (text too long, missing media key, bad kind).
	// Validation failures surface to the caller immediately; nothing is persisted as pending.
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrModeratorRequired gates the admin review surface.
	ErrModeratorRequired = errors.New("moderator access required")
	// ErrApprovalNotPending is the idempotency boundary for task-token resumption.
	// A completion referencing an unknown, expired, or already-consumed token must fail
	// here rather than signal the workflow a second time.
	ErrApprovalNotPending = errors.New("approval not found or already completed")
	// ErrConcurrentUpdate signals a lost compare-and-swap on token completion or run
	// advancement. Callers retry the read-modify-write; it is never a permanent failure.
	ErrConcurrentUpdate = errors.New("concurrent update conflict")
	// ErrRunNotSuspended is returned when a callback arrives for a run that is not
	// parked at a human-review state.
	ErrRunNotSuspended = errors.New("workflow run is not awaiting review")
	// ErrInvalidTransition marks an event the current workflow state cannot consume.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrTaskInvocation wraps failures of workflow tasks (segmentation, scoring, PII).
	// These surface as failed runs visible to operators, never as silent drops.
	ErrTaskInvocation = errors.New("task invocation failed")
	ErrConflict       = errors.New("conflict")
)
