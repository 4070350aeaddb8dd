package domain

import "time"

// DecisionStatus is the closed set of moderation outcomes.
type DecisionStatus string

const (
	DecisionApproved    DecisionStatus = "APPROVED"
	DecisionRejected    DecisionStatus = "REJECTED"
	DecisionHumanReview DecisionStatus = "PENDING_HUMAN_REVIEW"
)

// ModerationDecision is the decision engine's output. ShadowModeration marks
// rejections that are additionally hidden from everyone but the submitter; the
// submitter sees an ordinary rejection so the detection logic stays opaque.
type ModerationDecision struct {
	ItemID           string          `json:"item_id"`
	Status           DecisionStatus  `json:"status"`
	Reason           string          `json:"reason,omitempty"`
	Confidence       float64         `json:"confidence"`
	ShadowModeration bool            `json:"shadow_moderation"`
	StrikeCount      int             `json:"strike_count"`
	Analysis         ContentAnalysis `json:"analysis"`
	DecidedAt        time.Time       `json:"decided_at"`
}

// Thresholds is the two-threshold confidence banding plus escalation knobs.
type Thresholds struct {
	// AutoReject and HumanReview are inclusive lower bounds of their bands:
	// exactly 0.95 rejects, exactly 0.85 goes to review.
	AutoReject  float64
	HumanReview float64
	// ShadowSexual is the image-confidence bar for the minors+sexual rule.
	ShadowSexual float64
	// RepeatOffenderStrikes is the strike count at which auto-approve is lost.
	RepeatOffenderStrikes int
}

// DefaultThresholds mirrors the production banding: 95% auto-reject, 85%
// human review, 60% sexual-content bar for the minors rule, three strikes.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoReject:            0.95,
		HumanReview:           0.85,
		ShadowSexual:          0.6,
		RepeatOffenderStrikes: 3,
	}
}

// Decide applies moderation policy in strict priority order and reports
// whether a strike must be recorded. Policy, first match wins:
//
//  1. minors risk combined with sexual imagery -> shadow-moderated rejection
//  2. confidence at or above the auto-reject bar -> rejection, records a strike
//  3. repeat offender -> human review regardless of confidence
//  4. confidence at or above the review bar -> human review
//  5. otherwise -> approved
//
// Strikes are recorded only by rule 2; pending and approved outcomes never
// touch the strike count.
func Decide(itemID string, analysis ContentAnalysis, strikeCount int, th Thresholds, now time.Time) (ModerationDecision, bool) {
	decision := ModerationDecision{
		ItemID:      itemID,
		Confidence:  analysis.OverallConfidence,
		StrikeCount: strikeCount,
		Analysis:    analysis,
		DecidedAt:   now,
	}

	sexual := analysis.Image.ExplicitConfidence > th.ShadowSexual ||
		analysis.Image.SuggestiveConfidence > th.ShadowSexual
	if analysis.MinorsRisk && sexual {
		decision.Status = DecisionRejected
		decision.Reason = "Content combines minors risk with sexual content and violates the minors safety policy"
		decision.ShadowModeration = true
		decision.Confidence = 1.0
		return decision, false
	}

	if analysis.OverallConfidence >= th.AutoReject {
		decision.Status = DecisionRejected
		decision.Reason = "Content violates community guidelines: explicit content detected"
		decision.StrikeCount = strikeCount + 1
		return decision, true
	}

	if strikeCount >= th.RepeatOffenderStrikes {
		decision.Status = DecisionHumanReview
		decision.Reason = "Account under review due to repeat violations"
		return decision, false
	}

	if analysis.OverallConfidence >= th.HumanReview {
		decision.Status = DecisionHumanReview
		decision.Reason = "Content flagged for human review"
		return decision, false
	}

	decision.Status = DecisionApproved
	decision.Reason = "Content passed moderation checks"
	return decision, false
}
