package emotion

const (
	positiveFeedbackDelta = 2
	negativeFeedbackDelta = -5

	lowComprehension      = 0.3
	highComprehension     = 0.7
	lowComprehensionFloor = 10
	highComprehensionCap  = 95
	lowComprehensionDelta = -3
	highComprehensionGain = 1
)

// TrustMachine applies feedback and comprehension signals to a trust score.
type TrustMachine struct{}

// NewTrustMachine returns a TrustMachine.
func NewTrustMachine() *TrustMachine {
	return &TrustMachine{}
}

// ApplyFeedback returns the trust score after a feedback word.
func (m *TrustMachine) ApplyFeedback(score int, feedback string) int {
	switch FeedbackPolarity(feedback) {
	case PolarityPositive:
		score += positiveFeedbackDelta
	case PolarityNegative:
		score += negativeFeedbackDelta
	}
	return ClampTrust(score)
}

// ApplyComprehension returns the trust score after a comprehension measurement.
// Very low trust is not pushed further down and near-full trust is not raised.
func (m *TrustMachine) ApplyComprehension(score int, comprehension float64) int {
	switch {
	case comprehension < lowComprehension && score > lowComprehensionFloor:
		score += lowComprehensionDelta
	case comprehension > highComprehension && score < highComprehensionCap:
		score += highComprehensionGain
	}
	return ClampTrust(score)
}
