package storage

import (
	"context"
	"fmt"

	"github.com/easeaico/tryangel/internal/types"
)

// AppendInteraction inserts one exchange into the interaction log.
func (s *Store) AppendInteraction(ctx context.Context, entry types.Interaction) error {
	record := interactionModel{
		UserID:    entry.UserID,
		Message:   entry.Message,
		Response:  entry.Response,
		CreatedAt: entry.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns the exchanges of userID, or of every user when
// userID is empty, oldest first.
func (s *Store) ListInteractions(ctx context.Context, userID string) ([]types.Interaction, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	var records []interactionModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	results := make([]types.Interaction, 0, len(records))
	for _, r := range records {
		results = append(results, types.Interaction{
			Timestamp: r.CreatedAt,
			UserID:    r.UserID,
			Message:   r.Message,
			Response:  r.Response,
		})
	}
	return results, nil
}

func (s *Store) AppendEmotion(ctx context.Context, userID string, entry types.EmotionEntry) error {
	record := emotionModel{UserID: userID, Emotion: entry.Emotion, CreatedAt: entry.Timestamp}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert emotion: %w", err)
	}
	return nil
}

func (s *Store) ListEmotions(ctx context.Context, userID string) ([]types.EmotionEntry, error) {
	var records []emotionModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query emotion timeline: %w", err)
	}
	results := make([]types.EmotionEntry, 0, len(records))
	for _, r := range records {
		results = append(results, types.EmotionEntry{Timestamp: r.CreatedAt, Emotion: r.Emotion})
	}
	return results, nil
}

func (s *Store) AppendMemoryEvent(ctx context.Context, userID string, event types.MemoryEvent) error {
	record := memoryEventModel{
		UserID:    userID,
		EventType: event.Type,
		Event:     event.Event,
		EventDate: event.Date,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert memory event: %w", err)
	}
	return nil
}

func (s *Store) ListMemoryEvents(ctx context.Context, userID string) ([]types.MemoryEvent, error) {
	var records []memoryEventModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query memory events: %w", err)
	}
	results := make([]types.MemoryEvent, 0, len(records))
	for _, r := range records {
		results = append(results, types.MemoryEvent{Date: r.EventDate, Type: r.EventType, Event: r.Event})
	}
	return results, nil
}

func (s *Store) AppendVoiceTrace(ctx context.Context, userID string, trace types.VoiceTrace) error {
	record := voiceTraceModel{
		UserID:    userID,
		Emotion:   trace.Emotion,
		VoiceID:   trace.VoiceID,
		Result:    trace.Result,
		CreatedAt: trace.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert voice trace: %w", err)
	}
	return nil
}

func (s *Store) ListVoiceTraces(ctx context.Context, userID string) ([]types.VoiceTrace, error) {
	var records []voiceTraceModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query voice traces: %w", err)
	}
	results := make([]types.VoiceTrace, 0, len(records))
	for _, r := range records {
		results = append(results, types.VoiceTrace{
			Timestamp: r.CreatedAt,
			Emotion:   r.Emotion,
			VoiceID:   r.VoiceID,
			Result:    r.Result,
		})
	}
	return results, nil
}
