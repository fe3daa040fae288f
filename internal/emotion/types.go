package emotion

import "strings"

// Polarity is the direction of a feedback word.
type Polarity string

const (
	PolarityPositive Polarity = "Positive"
	PolarityNegative Polarity = "Negative"
	PolarityNeutral  Polarity = "Neutral"
)

// Emotion labels reported by users.
const (
	Joyeux    = "joyeux"
	Satisfait = "satisfait"
	Triste    = "triste"
	Frustre   = "frustré"
	Fatigue   = "fatigué"
	Angoisse  = "angoissé"
	Stresse   = "stressé"
	Confus    = "confus"
	Neutre    = "neutre"
)

// Labels lists every emotion the companion recognizes.
var Labels = []string{Joyeux, Satisfait, Triste, Frustre, Fatigue, Angoisse, Stresse, Confus, Neutre}

var (
	positiveFeedback = []string{"positif", "clair", "excellent", "oui"}
	negativeFeedback = []string{"négatif", "confus", "mauvais", "non"}
)

// FeedbackPolarity classifies a feedback word, ignoring case and surrounding spaces.
func FeedbackPolarity(feedback string) Polarity {
	fb := Normalize(feedback)
	switch {
	case contains(positiveFeedback, fb):
		return PolarityPositive
	case contains(negativeFeedback, fb):
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// Normalize lowercases and trims a label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// IsLabel reports whether label is a known emotion.
func IsLabel(label string) bool {
	return contains(Labels, Normalize(label))
}

// ClampTrust bounds a trust score to 0-100.
func ClampTrust(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// ClampRisk bounds a risk score to 0-1.
func ClampRisk(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
