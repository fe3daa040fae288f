package types

import "time"

// Interaction is one exchange in the interaction (memory) log.
type Interaction struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
}

// EmotionEntry is one point of a user's emotion timeline.
type EmotionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion"`
}

// MemoryEvent is a notable event the companion remembers about a user.
type MemoryEvent struct {
	Date  time.Time `json:"date"`
	Type  string    `json:"type"`
	Event string    `json:"event"`
}

// VoiceTrace records how a voice was received in a given emotional context.
type VoiceTrace struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion"`
	VoiceID   string    `json:"voice_id"`
	Result    string    `json:"result"`
}

// VoiceSuggestion is the outcome of a voice adjustment analysis.
type VoiceSuggestion struct {
	CurrentVoice string  `json:"current_voice"`
	Suggestion   *string `json:"suggestion"`
	Reason       string  `json:"reason"`
}

// VoiceTally counts positive and negative results for one voice.
type VoiceTally struct {
	Positive int `json:"positif"`
	Negative int `json:"négatif"`
}
