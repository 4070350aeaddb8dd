package application

const (
	// eventTypeSubmissionReceived is emitted when a submission is accepted and
	// its approval run starts.
	eventTypeSubmissionReceived = "moderation.submission.received"
	// eventTypeDecisionRecorded is emitted for every synchronous moderation decision.
	eventTypeDecisionRecorded = "moderation.decision.recorded"
	// eventTypeReviewCompleted is emitted when an admin completes a review.
	eventTypeReviewCompleted = "moderation.review.completed"
	// eventTypeReviewExpired is emitted when the sweeper auto-rejects a stale review.
	eventTypeReviewExpired = "moderation.review.expired"
	// eventTypeItemPublished is emitted when a closet item reaches Published.
	eventTypeItemPublished = "closet.item.published"
	// eventTypeItemRejected is emitted when a closet item reaches Rejected.
	eventTypeItemRejected = "closet.item.rejected"
	// eventTypeRunFailed is emitted when a run dies on task breakage so the
	// owner can be notified.
	eventTypeRunFailed = "moderation.run.failed"
	// eventTypeStoryScheduled records intent for the scheduled-story stub.
	eventTypeStoryScheduled = "story.scheduled"
	// eventTypeStoryPublished is emitted when a story publishes immediately.
	eventTypeStoryPublished = "story.published"
)
