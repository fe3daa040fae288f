package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/tryangel/internal/types"
)

// Get returns the stored profile or types.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*types.Profile, error) {
	var record profileModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return profileFromModel(record)
}

// GetOrCreate returns the stored profile, inserting defaults when missing.
// Concurrent creators race on the primary key and all read the winner's row.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*types.Profile, error) {
	p, err := s.Get(ctx, userID)
	if !errors.Is(err, types.ErrNotFound) {
		return p, err
	}

	record, err := profileToModel(types.NewProfile(userID, time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// Update applies fn to the profile inside a transaction that holds the row
// lock, so concurrent updates of one user are serialized.
func (s *Store) Update(ctx context.Context, userID string, fn func(*types.Profile) error) (*types.Profile, error) {
	var updated *types.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record profileModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		p, err := profileFromModel(record)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		next, err := profileToModel(p)
		if err != nil {
			return err
		}
		if err := tx.Model(&profileModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"trust_score":          next.TrustScore,
				"speech_speed_avg":     next.SpeechSpeedAvg,
				"preferred_voice":      next.PreferredVoice,
				"feedback_history":     next.FeedbackHistory,
				"last_emotion":         next.LastEmotion,
				"comprehension_scores": next.ComprehensionScores,
				"dropout_risk_score":   next.DropoutRiskScore,
				"last_update_date":     next.LastUpdateDate,
			}).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListUserIDs returns every profile id, sorted.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&profileModel{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return ids, nil
}
