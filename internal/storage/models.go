package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/easeaico/tryangel/internal/types"
)

// profileModel maps to the user_profiles table.
type profileModel struct {
	UserID              string `gorm:"primaryKey"`
	TrustScore          int
	SpeechSpeedAvg      float64
	PreferredVoice      string
	FeedbackHistory     json.RawMessage `gorm:"type:jsonb"`
	LastEmotion         string
	ComprehensionScores json.RawMessage `gorm:"type:jsonb"`
	DropoutRiskScore    float64
	CreationDate        time.Time
	LastUpdateDate      time.Time
}

func (profileModel) TableName() string {
	return "user_profiles"
}

// interactionModel maps to the interactions table.
type interactionModel struct {
	ID        int64
	UserID    string
	Message   string
	Response  string
	CreatedAt time.Time
}

func (interactionModel) TableName() string {
	return "interactions"
}

type emotionModel struct {
	ID        int64
	UserID    string
	Emotion   string
	CreatedAt time.Time
}

func (emotionModel) TableName() string {
	return "emotion_timeline"
}

type memoryEventModel struct {
	ID        int64
	UserID    string
	EventType string
	Event     string
	EventDate time.Time
}

func (memoryEventModel) TableName() string {
	return "memory_events"
}

type voiceTraceModel struct {
	ID        int64
	UserID    string
	Emotion   string
	VoiceID   string
	Result    string
	CreatedAt time.Time
}

func (voiceTraceModel) TableName() string {
	return "voice_traces"
}

func profileToModel(p *types.Profile) (profileModel, error) {
	feedback, err := marshalJSON(p.FeedbackHistory)
	if err != nil {
		return profileModel{}, err
	}
	scores, err := marshalJSON(p.ComprehensionScores)
	if err != nil {
		return profileModel{}, err
	}
	return profileModel{
		UserID:              p.UserID,
		TrustScore:          p.TrustScore,
		SpeechSpeedAvg:      p.SpeechSpeedAvg,
		PreferredVoice:      p.PreferredVoice,
		FeedbackHistory:     feedback,
		LastEmotion:         p.LastEmotion,
		ComprehensionScores: scores,
		DropoutRiskScore:    p.DropoutRiskScore,
		CreationDate:        p.CreationDate,
		LastUpdateDate:      p.LastUpdateDate,
	}, nil
}

func profileFromModel(m profileModel) (*types.Profile, error) {
	p := &types.Profile{
		UserID:              m.UserID,
		TrustScore:          m.TrustScore,
		SpeechSpeedAvg:      m.SpeechSpeedAvg,
		PreferredVoice:      m.PreferredVoice,
		FeedbackHistory:     []types.FeedbackEntry{},
		LastEmotion:         m.LastEmotion,
		ComprehensionScores: []types.ComprehensionEntry{},
		DropoutRiskScore:    m.DropoutRiskScore,
		CreationDate:        m.CreationDate,
		LastUpdateDate:      m.LastUpdateDate,
	}
	if err := unmarshalJSON(m.FeedbackHistory, &p.FeedbackHistory); err != nil {
		return nil, fmt.Errorf("failed to decode feedback history: %w", err)
	}
	if err := unmarshalJSON(m.ComprehensionScores, &p.ComprehensionScores); err != nil {
		return nil, fmt.Errorf("failed to decode comprehension scores: %w", err)
	}
	return p, nil
}

func marshalJSON(value any) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}
	return data, nil
}

func unmarshalJSON[T any](raw json.RawMessage, target *[]T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, target)
}
