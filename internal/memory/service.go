// Package memory records what the companion remembers about each user:
// exchanges, emotions, notable events and how each voice was received.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/types"
)

// DefaultRecallLimit is the number of memories returned by RecallMemories.
const DefaultRecallLimit = 5

// NoMemories is returned by RecallMemories when nothing was recorded.
const NoMemories = "Aucun souvenir enregistré pour le moment."

// Repo is the append-only storage behind the memory service.
type Repo interface {
	AppendInteraction(ctx context.Context, entry types.Interaction) error
	ListInteractions(ctx context.Context, userID string) ([]types.Interaction, error)

	AppendEmotion(ctx context.Context, userID string, entry types.EmotionEntry) error
	ListEmotions(ctx context.Context, userID string) ([]types.EmotionEntry, error)

	AppendMemoryEvent(ctx context.Context, userID string, event types.MemoryEvent) error
	ListMemoryEvents(ctx context.Context, userID string) ([]types.MemoryEvent, error)

	AppendVoiceTrace(ctx context.Context, userID string, trace types.VoiceTrace) error
	ListVoiceTraces(ctx context.Context, userID string) ([]types.VoiceTrace, error)
}

// Service reads and appends the per-user logs.
type Service struct {
	repo    Repo
	nowFunc func() time.Time
}

// NewService returns a memory service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo, nowFunc: time.Now}
}

// SaveInteraction appends one exchange to the interaction log.
func (s *Service) SaveInteraction(ctx context.Context, userID, message, response string) (types.Interaction, error) {
	entry := types.Interaction{
		Timestamp: s.nowFunc(),
		UserID:    userID,
		Message:   message,
		Response:  response,
	}
	if err := s.repo.AppendInteraction(ctx, entry); err != nil {
		return types.Interaction{}, fmt.Errorf("failed to save interaction: %w", err)
	}
	return entry, nil
}

// History returns the logged exchanges of a user in chronological order.
func (s *Service) History(ctx context.Context, userID string) ([]types.Interaction, error) {
	return s.repo.ListInteractions(ctx, userID)
}

// UpdateEmotionTimeline appends an emotion to the user's timeline.
func (s *Service) UpdateEmotionTimeline(ctx context.Context, userID, label string) error {
	entry := types.EmotionEntry{Timestamp: s.nowFunc(), Emotion: emotion.Normalize(label)}
	if err := s.repo.AppendEmotion(ctx, userID, entry); err != nil {
		return fmt.Errorf("failed to update emotion timeline: %w", err)
	}
	return nil
}

// DetectEmotionTrend describes the last window entries of the user's timeline.
func (s *Service) DetectEmotionTrend(ctx context.Context, userID string, window int) (string, error) {
	timeline, err := s.repo.ListEmotions(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to read emotion timeline: %w", err)
	}
	return emotion.Trend(timeline, window), nil
}

// RecordMemory stores a notable event about the user.
func (s *Service) RecordMemory(ctx context.Context, userID, eventType, description string) (types.MemoryEvent, error) {
	event := types.MemoryEvent{
		Date:  s.nowFunc(),
		Type:  strings.TrimSpace(eventType),
		Event: strings.TrimSpace(description),
	}
	if err := s.repo.AppendMemoryEvent(ctx, userID, event); err != nil {
		return types.MemoryEvent{}, fmt.Errorf("failed to record memory: %w", err)
	}
	return event, nil
}

// RecallMemories returns the latest events as "YYYY-MM-DD – event" lines.
func (s *Service) RecallMemories(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}
	events, err := s.repo.ListMemoryEvents(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to recall memories: %w", err)
	}
	if len(events) == 0 {
		return []string{NoMemories}, nil
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, e.Date.Format(time.DateOnly)+" – "+e.Event)
	}
	return lines, nil
}

// RecordVoiceContext traces how a voice was received in an emotional context.
func (s *Service) RecordVoiceContext(ctx context.Context, userID, label, voiceID, result string) error {
	trace := types.VoiceTrace{
		Timestamp: s.nowFunc(),
		Emotion:   emotion.Normalize(label),
		VoiceID:   voiceID,
		Result:    emotion.Normalize(result),
	}
	if err := s.repo.AppendVoiceTrace(ctx, userID, trace); err != nil {
		return fmt.Errorf("failed to record voice context: %w", err)
	}
	return nil
}

// SummarizeVoiceMemory counts positive and negative results per voice.
// Results other than "positif" and "négatif" are ignored.
func (s *Service) SummarizeVoiceMemory(ctx context.Context, userID string) (map[string]types.VoiceTally, error) {
	traces, err := s.repo.ListVoiceTraces(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice traces: %w", err)
	}
	summary := make(map[string]types.VoiceTally)
	for _, t := range traces {
		tally := summary[t.VoiceID]
		switch t.Result {
		case "positif":
			tally.Positive++
		case "négatif":
			tally.Negative++
		}
		summary[t.VoiceID] = tally
	}
	return summary, nil
}
