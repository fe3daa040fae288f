package learner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/types"
)

// UnknownUserRisk is reported for users without a profile.
const UnknownUserRisk = 0.9

const (
	recentFeedbackWindow    = 5
	voiceSwitchTrustCeiling = 50
	voiceSwitchMinNegatives = 2
)

var (
	availableVoices = []string{"A", "B", "C", "D", "E"}
	// Complaints that concern the voice itself, including pace.
	voiceComplaints = []string{"négatif", "confus", "lent", "rapide"}
	// Feedback counted as negative when estimating dropout risk.
	dropoutNegatives = []string{"négatif", "confus", "mauvais"}
)

// CalculateComprehensionScore returns the share of expected keywords found in text.
func CalculateComprehensionScore(text string, expectedKeywords []string) float64 {
	if text == "" || len(expectedKeywords) == 0 {
		return 0
	}
	lowered := strings.ToLower(text)
	found := 0
	for _, kw := range expectedKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(expectedKeywords))
}

// SuggestVoiceAdjustment proposes another voice when trust is low and the
// preferred voice keeps drawing complaints.
func (s *Service) SuggestVoiceAdjustment(ctx context.Context, userID string) (*types.VoiceSuggestion, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	suggestion := &types.VoiceSuggestion{CurrentVoice: p.PreferredVoice}
	recent := p.FeedbackHistory
	if len(recent) > recentFeedbackWindow {
		recent = recent[len(recent)-recentFeedbackWindow:]
	}
	complaints := 0
	for _, fb := range recent {
		if fb.VoiceID == p.PreferredVoice && containsLabel(voiceComplaints, fb.Feedback) {
			complaints++
		}
	}

	if p.TrustScore < voiceSwitchTrustCeiling && complaints >= voiceSwitchMinNegatives {
		choices := make([]string, 0, len(availableVoices))
		for _, v := range availableVoices {
			if v != p.PreferredVoice {
				choices = append(choices, v)
			}
		}
		if len(choices) > 0 {
			choice := choices[s.intn(len(choices))]
			suggestion.Suggestion = &choice
			suggestion.Reason = fmt.Sprintf("Score de confiance faible et %d feedbacks négatifs.", complaints)
		}
	}
	return suggestion, nil
}

// AnalyzeDropoutRisk adds the current risk signals to the stored score,
// persists the clamped result and returns it.
func (s *Service) AnalyzeDropoutRisk(ctx context.Context, userID string) (float64, error) {
	if err := types.ValidateUserID(userID); err != nil {
		return 0, err
	}
	now := s.nowFunc()
	var risk float64
	_, err := s.profiles.Update(ctx, userID, func(p *types.Profile) error {
		risk = EvaluateDropoutRisk(p, now)
		p.DropoutRiskScore = risk
		p.LastUpdateDate = now
		return nil
	})
	if errors.Is(err, types.ErrNotFound) {
		return UnknownUserRisk, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to analyze dropout risk: %w", err)
	}
	return risk, nil
}

// EvaluateDropoutRisk evaluates p at the current time without persisting.
func (s *Service) EvaluateDropoutRisk(p *types.Profile) float64 {
	return EvaluateDropoutRisk(p, s.nowFunc())
}

// EvaluateDropoutRisk computes the dropout risk of a profile at now without
// modifying it. The stored score is the baseline the penalties add onto.
func EvaluateDropoutRisk(p *types.Profile, now time.Time) float64 {
	risk := p.DropoutRiskScore

	switch {
	case p.TrustScore < 30:
		risk += 0.3
	case p.TrustScore < 50:
		risk += 0.15
	}

	interactions := len(p.FeedbackHistory)
	if interactions < 3 {
		risk += 0.2
	} else {
		inactive := daysBetween(p.FeedbackHistory[interactions-1].Timestamp, now)
		switch {
		case inactive > 14:
			risk += 0.25
		case inactive > 7:
			risk += 0.1
		}
	}

	if interactions > 0 {
		negatives := 0
		for _, fb := range p.FeedbackHistory {
			if containsLabel(dropoutNegatives, fb.Feedback) {
				negatives++
			}
		}
		ratio := float64(negatives) / float64(interactions)
		switch {
		case ratio > 0.6:
			risk += 0.3
		case ratio > 0.4:
			risk += 0.15
		}
	}

	if n := len(p.ComprehensionScores); n > 3 {
		total := 0.0
		for _, cs := range p.ComprehensionScores {
			total += cs.Score
		}
		if total/float64(n) < 0.4 {
			risk += 0.2
		}
	}

	return emotion.ClampRisk(risk)
}

// DefaultRhythmThresholdDays is the absence, in days, after which the
// companion asks whether everything is fine.
const DefaultRhythmThresholdDays = 3

// AnalyzeUserRhythm describes how long it has been since the user last gave feedback.
func (s *Service) AnalyzeUserRhythm(ctx context.Context, userID string, thresholdDays int) (string, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(p.FeedbackHistory) == 0 {
		return "Je n’ai pas encore assez d’interactions pour analyser ton rythme.", nil
	}

	days := daysBetween(p.FeedbackHistory[len(p.FeedbackHistory)-1].Timestamp, s.nowFunc())
	switch {
	case days > thresholdDays:
		return fmt.Sprintf("Tu n’étais pas venu me parler depuis %d jours. Est-ce que tout va bien ?", days), nil
	case days == 0:
		return "Merci de revenir me voir aujourd’hui !", nil
	default:
		return fmt.Sprintf("On s’est reparlé il y a %d jours. Ravi de te retrouver.", days), nil
	}
}

func containsLabel(set []string, label string) bool {
	label = emotion.Normalize(label)
	for _, s := range set {
		if s == label {
			return true
		}
	}
	return false
}
