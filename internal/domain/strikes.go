package domain

import "time"

// StrikeWindow is the trailing window in which a rejection counts toward
// repeat-offender status. Strikes age out instead of being deleted.
const StrikeWindow = 90 * 24 * time.Hour

// RepeatOffenderThreshold is the qualifying-strike count at which a user loses
// auto-approve privileges.
const RepeatOffenderThreshold = 3

// Strike is one recorded REJECTED decision.
type Strike struct {
	UserID     string
	ItemID     string
	Reason     string
	RecordedAt time.Time
}

// RepeatOffenderStatus is the per-user aggregate reported to the decision
// engine. StrikeCount is a live filter over history, not a stored counter.
type RepeatOffenderStatus struct {
	UserID           string     `json:"user_id"`
	StrikeCount      int        `json:"strike_count"`
	IsRepeatOffender bool       `json:"is_repeat_offender"`
	LastStrikeAt     *time.Time `json:"last_strike_at,omitempty"`
}

// StrikeQualifies reports whether a strike recorded at recordedAt still counts
// at now. The boundary is exclusive: a strike exactly StrikeWindow old is out,
// consistent with "reset after 90 days of clean record".
func StrikeQualifies(recordedAt, now time.Time) bool {
	return now.Sub(recordedAt) < StrikeWindow
}

// NewRepeatOffenderStatus aggregates qualifying strikes. Zero history reports
// a clean status.
func NewRepeatOffenderStatus(userID string, strikes []Strike, now time.Time) RepeatOffenderStatus {
	status := RepeatOffenderStatus{UserID: userID}
	for _, strike := range strikes {
		if !StrikeQualifies(strike.RecordedAt, now) {
			continue
		}
		status.StrikeCount++
		if status.LastStrikeAt == nil || strike.RecordedAt.After(*status.LastStrikeAt) {
			at := strike.RecordedAt
			status.LastStrikeAt = &at
		}
	}
	status.IsRepeatOffender = status.StrikeCount >= RepeatOffenderThreshold
	return status
}
