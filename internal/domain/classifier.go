package domain

import (
	"strings"
	"unicode/utf8"
)

// profanityTerms is the seed term list; matches raise the profanity score.
// Expandable via MODERATION_CONFIG without code changes in a later slice.
var profanityTerms = []string{
	"damn",
	"hell",
	"crap",
	"wtf",
	"stfu",
}

// restrictedTags are never allowed on fan content regardless of image scores.
var restrictedTags = []string{
	"minors",
	"explicit",
	"adult",
}

// Spam signal weights. Each signal contributes independently and the total is
// clamped to [0,1].
const (
	spamWeightEmojiRun   = 0.6
	spamWeightEmojiCount = 0.3
	spamWeightCharRepeat = 0.25
	spamWeightManyLinks  = 0.35
	spamWeightLinkBait   = 0.3
	spamWeightHashtags   = 0.35
)

// AnalyzeText scores caption/description text for profanity and spam.
// Empty text scores zero on every channel and stays valid.
func AnalyzeText(text string) TextScore {
	count := utf8.RuneCountInString(text)
	if count == 0 {
		return TextScore{Valid: true}
	}

	score := TextScore{
		CharacterCount: count,
		Valid:          count <= MaxTextLength,
	}

	lower := strings.ToLower(text)
	for _, term := range profanityTerms {
		if strings.Contains(lower, term) {
			score.Matches = append(score.Matches, term)
		}
	}
	if n := len(score.Matches); n > 0 {
		score.ProfanityScore = clamp01(0.5 + 0.2*float64(n-1))
	}

	score.SpamScore = spamScore(text, lower, count)
	return score
}

// AnalyzeMetadata validates tags and the optional description.
func AnalyzeMetadata(tags []string, description string) MetadataScore {
	score := MetadataScore{
		DescriptionLength: utf8.RuneCountInString(description),
	}
	for _, tag := range tags {
		lowered := strings.ToLower(strings.TrimSpace(tag))
		for _, restricted := range restrictedTags {
			if strings.Contains(lowered, restricted) {
				score.RestrictedTags = append(score.RestrictedTags, tag)
				break
			}
		}
	}
	score.HasRestrictedTags = len(score.RestrictedTags) > 0
	score.Valid = !score.HasRestrictedTags && score.DescriptionLength <= MaxDescriptionLength
	return score
}

func spamScore(text, lower string, runeCount int) float64 {
	var score float64

	emojiCount := countEmoji(text)
	switch {
	case runeCount > 0 && float64(emojiCount)/float64(runeCount) > 0.3:
		score += spamWeightEmojiRun
	case emojiCount > 10:
		score += spamWeightEmojiCount
	}

	if hasRepeatedRun(text, 5) {
		score += spamWeightCharRepeat
	}

	links := strings.Count(lower, "http://") + strings.Count(lower, "https://")
	switch {
	case links >= 3:
		score += spamWeightManyLinks
	case links > 0 && runeCount < 50:
		score += spamWeightLinkBait
	}

	if strings.Count(text, "#") >= 5 {
		score += spamWeightHashtags
	}

	return clamp01(score)
}

// countEmoji counts runes in the common emoji and pictograph blocks.
func countEmoji(text string) int {
	n := 0
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			n++
		}
	}
	return n
}

// hasRepeatedRun reports whether any rune repeats at least minRun times in a
// row ("hellloooooo"). Implemented by scan since RE2 has no backreferences.
func hasRepeatedRun(text string, minRun int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= minRun {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
