// Package learner tracks per-user profiles and scores how each user engages
// with the companion: trust, speech speed, comprehension and dropout risk.
package learner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/types"
)

// ErrInvalidScore is returned for comprehension scores outside [0,1].
var ErrInvalidScore = errors.New("comprehension score must be within [0,1]")

// ProfileRepo persists profiles with atomic per-user updates.
type ProfileRepo interface {
	Get(ctx context.Context, userID string) (*types.Profile, error)
	GetOrCreate(ctx context.Context, userID string) (*types.Profile, error)
	Update(ctx context.Context, userID string, fn func(*types.Profile) error) (*types.Profile, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// FeedbackInput is one piece of user feedback about a spoken reply.
type FeedbackInput struct {
	VoiceID     string
	Feedback    string
	Emotion     string
	SpeedSample *float64
}

// Service applies the learner heuristics to stored profiles.
type Service struct {
	profiles ProfileRepo
	trust    *emotion.TrustMachine
	nowFunc  func() time.Time
	intn     func(n int) int
}

// NewService returns a learner Service.
func NewService(profiles ProfileRepo) *Service {
	return &Service{
		profiles: profiles,
		trust:    emotion.NewTrustMachine(),
		nowFunc:  time.Now,
		intn:     rand.IntN,
	}
}

// LoadProfile returns the user's profile, creating it with defaults when missing.
func (s *Service) LoadProfile(ctx context.Context, userID string) (*types.Profile, error) {
	if err := types.ValidateUserID(userID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// Profile returns an existing profile or types.ErrNotFound.
func (s *Service) Profile(ctx context.Context, userID string) (*types.Profile, error) {
	if err := types.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, userID)
}

// UserIDs lists every stored profile.
func (s *Service) UserIDs(ctx context.Context) ([]string, error) {
	return s.profiles.ListUserIDs(ctx)
}

// RecordInteraction appends feedback to the history and adjusts trust and speech speed.
func (s *Service) RecordInteraction(ctx context.Context, userID string, in FeedbackInput) (*types.Profile, error) {
	if err := types.ValidateUserID(userID); err != nil {
		return nil, err
	}
	now := s.nowFunc()
	return s.profiles.Update(ctx, userID, func(p *types.Profile) error {
		p.FeedbackHistory = append(p.FeedbackHistory, types.FeedbackEntry{
			Timestamp:   now,
			VoiceID:     in.VoiceID,
			Feedback:    in.Feedback,
			Emotion:     in.Emotion,
			SpeedSample: in.SpeedSample,
		})
		p.LastEmotion = in.Emotion
		p.LastUpdateDate = now
		p.TrustScore = s.trust.ApplyFeedback(p.TrustScore, in.Feedback)

		if in.SpeedSample != nil {
			p.SpeechSpeedAvg = runningAverage(p.SpeechSpeedAvg, *in.SpeedSample, countSpeedSamples(p.FeedbackHistory))
		}
		return nil
	})
}

// AddComprehensionScore stores a comprehension measurement and nudges trust.
func (s *Service) AddComprehensionScore(ctx context.Context, userID string, score float64) (*types.Profile, error) {
	if err := types.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if score < 0 || score > 1 {
		return nil, ErrInvalidScore
	}
	now := s.nowFunc()
	return s.profiles.Update(ctx, userID, func(p *types.Profile) error {
		p.ComprehensionScores = append(p.ComprehensionScores, types.ComprehensionEntry{
			Timestamp: now,
			Score:     score,
		})
		p.TrustScore = s.trust.ApplyComprehension(p.TrustScore, score)
		p.LastUpdateDate = now
		return nil
	})
}

// SuggestAdaptiveVoice recommends a voice from the last emotion and the time of day.
func (s *Service) SuggestAdaptiveVoice(ctx context.Context, userID string) (string, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return "", err
	}
	return emotion.AdaptiveVoice(p.LastEmotion, s.nowFunc()), nil
}

// n counts samples including the new one; the first sample replaces the default.
func runningAverage(avg, sample float64, n int) float64 {
	if n <= 1 {
		return sample
	}
	return (avg*float64(n-1) + sample) / float64(n)
}

func countSpeedSamples(history []types.FeedbackEntry) int {
	n := 0
	for _, fb := range history {
		if fb.SpeedSample != nil {
			n++
		}
	}
	return n
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
