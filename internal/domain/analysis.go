package domain

// TextScore captures the classifier's read on caption/description text.
type TextScore struct {
	ProfanityScore float64  `json:"profanity_score"`
	SpamScore      float64  `json:"spam_score"`
	CharacterCount int      `json:"character_count"`
	Matches        []string `json:"matches,omitempty"`
	Valid          bool     `json:"valid"`
}

// MetadataScore captures tag/description validation.
type MetadataScore struct {
	HasRestrictedTags bool     `json:"has_restricted_tags"`
	RestrictedTags    []string `json:"restricted_tags,omitempty"`
	DescriptionLength int      `json:"description_length"`
	Valid             bool     `json:"valid"`
}

// ImageScore carries the external scorer's independent confidences, both 0..1.
type ImageScore struct {
	ExplicitConfidence   float64 `json:"explicit_confidence"`
	SuggestiveConfidence float64 `json:"suggestive_confidence"`
	TopLabel             string  `json:"top_label,omitempty"`
}

// ContentAnalysis is the classifier output the decision engine consumes.
// It is ephemeral: computed per decision and not persisted beyond it.
type ContentAnalysis struct {
	Text       TextScore     `json:"text"`
	Metadata   MetadataScore `json:"metadata"`
	Image      ImageScore    `json:"image"`
	MinorsRisk bool          `json:"minors_risk"`

	// OverallConfidence is the maximum risk signal across channels. A single
	// high-risk channel must dominate; averaging would hide it.
	OverallConfidence float64 `json:"overall_confidence"`
}

// restrictedTagSignal is the overall-confidence contribution of a restricted
// tag match. It lands the item in the human-review band without auto-rejecting.
const restrictedTagSignal = 0.9

// ComputeOverallConfidence derives the max-of-signals confidence and stores it
// on the analysis.
func (a *ContentAnalysis) ComputeOverallConfidence() {
	signals := []float64{
		a.Text.ProfanityScore,
		a.Text.SpamScore,
		a.Image.ExplicitConfidence,
		a.Image.SuggestiveConfidence,
	}
	if a.Metadata.HasRestrictedTags {
		signals = append(signals, restrictedTagSignal)
	}
	max := 0.0
	for _, s := range signals {
		if s > max {
			max = s
		}
	}
	a.OverallConfidence = clamp01(max)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
