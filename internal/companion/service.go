// Package companion orchestrates a conversation turn: it resolves the user's
// profile, picks a reply, logs the exchange and voices the answer.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/learner"
	"github.com/easeaico/tryangel/internal/memory"
	"github.com/easeaico/tryangel/internal/metrics"
	"github.com/easeaico/tryangel/internal/types"
	"github.com/easeaico/tryangel/internal/voice"
)

var (
	// ErrInvalidInput marks requests that cannot be processed as sent.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMessageRequired is returned by Speak for a blank message.
	ErrMessageRequired = fmt.Errorf("%w: Message is required.", ErrInvalidInput)
)

// Synthesizer turns text into audio bytes and a file extension.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

// EmotionDetector guesses the emotion expressed in a message.
type EmotionDetector interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// Deps are the collaborators of a Service. Speech, Responder and Emotions
// are optional.
type Deps struct {
	Learner   *learner.Service
	Memory    *memory.Service
	Content   *content.Library
	Knowledge learner.KnowledgeBase
	Voices    *voice.Library
	Speech    Synthesizer
	Responder Responder
	Emotions  EmotionDetector

	// PublicBaseURL prefixes voice paths to build absolute clip URLs.
	PublicBaseURL string
}

// Service runs companion operations for any user. It holds no per-user state.
type Service struct {
	deps Deps
}

// NewService validates deps and returns a Service.
func NewService(deps Deps) (*Service, error) {
	if deps.Learner == nil {
		return nil, fmt.Errorf("learner service is required")
	}
	if deps.Memory == nil {
		return nil, fmt.Errorf("memory service is required")
	}
	if deps.Content == nil {
		return nil, fmt.Errorf("content library is required")
	}
	deps.PublicBaseURL = strings.TrimRight(deps.PublicBaseURL, "/")
	return &Service{deps: deps}, nil
}

func (s *Service) Learner() *learner.Service {
	return s.deps.Learner
}

func (s *Service) Memory() *memory.Service {
	return s.deps.Memory
}

func (s *Service) Content() *content.Library {
	return s.deps.Content
}

// SpeakInput is one user message.
type SpeakInput struct {
	UserID  string
	Message string
	Emotion string
}

// SpeakResult is the companion's answer to a message.
type SpeakResult struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	VoicePath string `json:"voice_path"`
	VoiceURL  string `json:"voice_url"`
	Emotion   string `json:"emotion,omitempty"`
	Source    string `json:"source"`
}

// Speak answers a message, logs the exchange and voices the reply. A failed
// speech synthesis leaves the voice fields empty.
func (s *Service) Speak(ctx context.Context, in SpeakInput) (*SpeakResult, error) {
	userID := ResolveUserID(in.UserID)
	if strings.TrimSpace(in.Message) == "" {
		return nil, ErrMessageRequired
	}
	message := in.Message

	profile, err := s.deps.Learner.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	label := s.resolveEmotion(ctx, in.Emotion, message)
	if label != "" {
		if err := s.deps.Memory.UpdateEmotionTimeline(ctx, userID, label); err != nil {
			slog.Warn("failed to update emotion timeline", "user_id", userID, "error", err)
		}
	}

	reply, source := s.reply(ctx, profile, label, message)
	metrics.RecordReply(source)

	if _, err := s.deps.Memory.SaveInteraction(ctx, userID, message, reply); err != nil {
		return nil, err
	}

	result := &SpeakResult{
		UserID:   userID,
		Message:  message,
		Response: reply,
		Emotion:  label,
		Source:   source,
	}
	if name := s.voice(ctx, userID, reply); name != "" {
		result.VoicePath = "/voices/" + name
		result.VoiceURL = s.deps.PublicBaseURL + result.VoicePath
	}

	if result.VoicePath != "" {
		if err := s.deps.Memory.RecordVoiceContext(ctx, userID, profile.LastEmotion, profile.PreferredVoice, "positif"); err != nil {
			slog.Warn("failed to record voice context", "user_id", userID, "error", err)
		}
	}

	slog.Info("companion replied", "user_id", userID, "source", source, "voice", result.VoicePath)
	return result, nil
}

func (s *Service) resolveEmotion(ctx context.Context, given, message string) string {
	if label := emotion.Normalize(given); label != "" {
		return label
	}
	if s.deps.Emotions == nil {
		return ""
	}
	label, err := s.deps.Emotions.Analyze(ctx, message)
	if err != nil {
		slog.Warn("failed to detect emotion", "error", err)
		return ""
	}
	return label
}

func (s *Service) reply(ctx context.Context, profile *types.Profile, label, message string) (string, string) {
	if text, source := routeCanned(s.deps.Content, message, label); source != "" {
		return text, source
	}

	if s.deps.Responder != nil {
		req := ReplyRequest{Profile: profile, Emotion: label, Message: message}
		if history, err := s.deps.Memory.History(ctx, profile.UserID); err == nil {
			req.History = history
		} else {
			slog.Warn("failed to load history", "user_id", profile.UserID, "error", err)
		}
		if memories, err := s.deps.Memory.RecallMemories(ctx, profile.UserID, memory.DefaultRecallLimit); err == nil && !isPlaceholder(memories) {
			req.Memories = memories
		}
		text, err := s.deps.Responder.Respond(ctx, req)
		if err == nil {
			return text, SourceLLM
		}
		slog.Warn("responder failed, using template reply", "user_id", profile.UserID, "error", err)
	}
	return TemplateReply(message), SourceTemplate
}

// voice synthesizes and stores reply, returning the clip name or "".
func (s *Service) voice(ctx context.Context, userID, reply string) string {
	if s.deps.Speech == nil || s.deps.Voices == nil {
		metrics.RecordSpeech("disabled")
		return ""
	}
	audio, ext, err := s.deps.Speech.Synthesize(ctx, reply)
	if err != nil {
		metrics.RecordSpeech("error")
		slog.Error("failed to synthesize speech", "user_id", userID, "error", err)
		return ""
	}
	name, _, err := s.deps.Voices.Save(audio, ext)
	if err != nil {
		metrics.RecordSpeech("error")
		slog.Error("failed to save voice clip", "user_id", userID, "error", err)
		return ""
	}
	metrics.RecordSpeech("success")
	return name
}

// FeedbackInput is the user's judgement of the last spoken reply.
type FeedbackInput struct {
	UserID      string
	VoiceID     string
	Feedback    string
	Emotion     string
	SpeedSample *float64
}

// Feedback records the user's reaction, extends the emotion timeline and
// traces how the voice was received.
func (s *Service) Feedback(ctx context.Context, in FeedbackInput) (*types.Profile, error) {
	userID := ResolveUserID(in.UserID)
	feedback := emotion.Normalize(in.Feedback)
	if feedback == "" {
		return nil, fmt.Errorf("%w: feedback is required", ErrInvalidInput)
	}
	if in.SpeedSample != nil && *in.SpeedSample < 0 {
		return nil, fmt.Errorf("%w: speech speed must be positive", ErrInvalidInput)
	}
	label := emotion.Normalize(in.Emotion)
	if label == "" {
		label = emotion.Neutre
	}

	current, err := s.deps.Learner.LoadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	voiceID := strings.TrimSpace(in.VoiceID)
	if voiceID == "" {
		voiceID = current.PreferredVoice
	}

	profile, err := s.deps.Learner.RecordInteraction(ctx, userID, learner.FeedbackInput{
		VoiceID:     voiceID,
		Feedback:    feedback,
		Emotion:     label,
		SpeedSample: in.SpeedSample,
	})
	if err != nil {
		return nil, err
	}

	polarity := emotion.FeedbackPolarity(feedback)
	metrics.RecordFeedback(string(polarity))
	if err := s.deps.Memory.UpdateEmotionTimeline(ctx, userID, label); err != nil {
		slog.Warn("failed to update emotion timeline", "user_id", userID, "error", err)
	}
	if err := s.deps.Memory.RecordVoiceContext(ctx, userID, label, voiceID, voiceResult(polarity, feedback)); err != nil {
		slog.Warn("failed to record voice context", "user_id", userID, "error", err)
	}
	return profile, nil
}

func voiceResult(p emotion.Polarity, feedback string) string {
	switch p {
	case emotion.PolarityPositive:
		return "positif"
	case emotion.PolarityNegative:
		return "négatif"
	default:
		return feedback
	}
}

// ComprehensionInput carries either a score or the text to score.
type ComprehensionInput struct {
	UserID   string
	Score    *float64
	Text     string
	Keywords []string
}

// ComprehensionResult is the recorded score and the updated profile.
type ComprehensionResult struct {
	Score   float64        `json:"score"`
	Profile *types.Profile `json:"profile"`
}

// Comprehension records a comprehension score, computing it from the user's
// answer and the expected keywords when no score is given.
func (s *Service) Comprehension(ctx context.Context, in ComprehensionInput) (*ComprehensionResult, error) {
	userID := ResolveUserID(in.UserID)
	var score float64
	switch {
	case in.Score != nil:
		score = *in.Score
	case len(in.Keywords) > 0:
		score = learner.CalculateComprehensionScore(in.Text, in.Keywords)
	default:
		return nil, fmt.Errorf("%w: score or keywords are required", ErrInvalidInput)
	}

	profile, err := s.deps.Learner.AddComprehensionScore(ctx, userID, score)
	if errors.Is(err, learner.ErrInvalidScore) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}
	return &ComprehensionResult{Score: score, Profile: profile}, nil
}

// Insights gathers every heuristic the learner offers about a user.
type Insights struct {
	UserID          string                      `json:"user_id"`
	TrustScore      int                         `json:"trust_score"`
	DropoutRisk     float64                     `json:"dropout_risk"`
	VoiceAdjustment *types.VoiceSuggestion      `json:"voice_adjustment"`
	AdaptiveVoice   string                      `json:"adaptive_voice"`
	Rhythm          string                      `json:"rhythm"`
	EmotionTrend    string                      `json:"emotion_trend"`
	VoiceSummary    map[string]types.VoiceTally `json:"voice_summary"`
	Memories        []string                    `json:"memories"`
}

// Insights reports on a user without modifying the stored profile; the
// dropout risk shown is the one a persisted analysis would store.
func (s *Service) Insights(ctx context.Context, userID string) (*Insights, error) {
	userID = ResolveUserID(userID)
	profile, err := s.deps.Learner.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Insights{
		UserID:      userID,
		TrustScore:  profile.TrustScore,
		DropoutRisk: s.deps.Learner.EvaluateDropoutRisk(profile),
	}
	if out.VoiceAdjustment, err = s.deps.Learner.SuggestVoiceAdjustment(ctx, userID); err != nil {
		return nil, err
	}
	if out.AdaptiveVoice, err = s.deps.Learner.SuggestAdaptiveVoice(ctx, userID); err != nil {
		return nil, err
	}
	if out.Rhythm, err = s.deps.Learner.AnalyzeUserRhythm(ctx, userID, learner.DefaultRhythmThresholdDays); err != nil {
		return nil, err
	}
	if out.EmotionTrend, err = s.deps.Memory.DetectEmotionTrend(ctx, userID, emotion.DefaultTrendWindow); err != nil {
		return nil, err
	}
	if out.VoiceSummary, err = s.deps.Memory.SummarizeVoiceMemory(ctx, userID); err != nil {
		return nil, err
	}
	if out.Memories, err = s.deps.Memory.RecallMemories(ctx, userID, memory.DefaultRecallLimit); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeDropoutRisk runs and persists the dropout risk analysis.
func (s *Service) AnalyzeDropoutRisk(ctx context.Context, userID string) (float64, error) {
	return s.deps.Learner.AnalyzeDropoutRisk(ctx, ResolveUserID(userID))
}

// Context maps text to the knowledge base categories it touches.
func (s *Service) Context(text string) map[string][]string {
	return learner.AnalyzeTextContext(text, s.deps.Knowledge)
}

// ResolveUserID trims userID and substitutes the default user for a blank id.
func ResolveUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return types.DefaultUserID
	}
	return userID
}

func isPlaceholder(memories []string) bool {
	return len(memories) == 1 && memories[0] == memory.NoMemories
}
