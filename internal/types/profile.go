package types

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

const (
	// DefaultUserID is used when a request carries no user id.
	DefaultUserID = "utilisateur_defaut_001"
	// DefaultVoice is the voice assigned to new profiles.
	DefaultVoice = "Sol"
	// DefaultEmotion is the emotion assigned to new profiles.
	DefaultEmotion = "neutre"
	// DefaultTrustScore is the trust score of a new profile.
	DefaultTrustScore = 70
	// DefaultSpeechSpeed is the words-per-minute baseline of a new profile.
	DefaultSpeechSpeed = 150.0
	// DefaultDropoutRisk is the dropout risk of a new profile.
	DefaultDropoutRisk = 0.1
)

// Profile is the persisted learner state of one user.
type Profile struct {
	UserID              string               `json:"user_id"`
	TrustScore          int                  `json:"trust_score"`
	SpeechSpeedAvg      float64              `json:"speech_speed_avg"`
	PreferredVoice      string               `json:"preferred_voice"`
	FeedbackHistory     []FeedbackEntry      `json:"feedback_history"`
	LastEmotion         string               `json:"last_emotion"`
	ComprehensionScores []ComprehensionEntry `json:"comprehension_scores"`
	DropoutRiskScore    float64              `json:"dropout_risk_score"`
	CreationDate        time.Time            `json:"creation_date"`
	LastUpdateDate      time.Time            `json:"last_update_date"`
}

// FeedbackEntry is one feedback interaction in a profile history.
type FeedbackEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	VoiceID     string    `json:"voice_id"`
	Feedback    string    `json:"feedback"`
	Emotion     string    `json:"emotion"`
	SpeedSample *float64  `json:"speech_speed_sample"`
}

// ComprehensionEntry is one comprehension measurement.
type ComprehensionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// NewProfile returns a profile with default values.
func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:              userID,
		TrustScore:          DefaultTrustScore,
		SpeechSpeedAvg:      DefaultSpeechSpeed,
		PreferredVoice:      DefaultVoice,
		FeedbackHistory:     []FeedbackEntry{},
		LastEmotion:         DefaultEmotion,
		ComprehensionScores: []ComprehensionEntry{},
		DropoutRiskScore:    DefaultDropoutRisk,
		CreationDate:        now,
		LastUpdateDate:      now,
	}
}

// Clone returns a deep copy so callers can mutate it without touching stored state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.FeedbackHistory = make([]FeedbackEntry, len(p.FeedbackHistory))
	for i, fb := range p.FeedbackHistory {
		if fb.SpeedSample != nil {
			v := *fb.SpeedSample
			fb.SpeedSample = &v
		}
		out.FeedbackHistory[i] = fb
	}
	out.ComprehensionScores = append([]ComprehensionEntry{}, p.ComprehensionScores...)
	return &out
}

// ErrInvalidUserID is returned for user ids that cannot be stored safely.
var ErrInvalidUserID = errors.New("invalid user id")

var userIDPattern = regexp.MustCompile(`^[\p{L}\p{N}_.@-]{1,128}$`)

// ValidateUserID rejects empty ids and ids that could escape a storage directory.
func ValidateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) || userID == "." || userID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return nil
}
