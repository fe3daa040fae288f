package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/tryangel/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	s.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestGetMissingProfile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 70, first.TrustScore)
	assert.FileExists(t, filepath.Join(s.profilesDir, "alice_profile.json"))

	second, err := s.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestGetOrCreateReplacesCorruptProfile(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.profilesDir, "bob_profile.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p, err := s.GetOrCreate(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultVoice, p.PreferredVoice)
	assert.FileExists(t, path+".corrupt")
}

func TestUpdatePersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.GetOrCreate(ctx, "carol")
	require.NoError(t, err)

	updated, err := s.Update(ctx, "carol", func(p *types.Profile) error {
		p.TrustScore = 12
		p.PreferredVoice = "B"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.TrustScore)

	reloaded, err := s.Get(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "B", reloaded.PreferredVoice)
	assert.Equal(t, 12, reloaded.TrustScore)
}

func TestUpdateAbortsOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.GetOrCreate(ctx, "dave")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "dave", func(p *types.Profile) error {
		p.TrustScore = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Get(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 70, p.TrustScore)
}

func TestUpdateMissingProfile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Update(context.Background(), "ghost", func(*types.Profile) error { return nil })
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestConcurrentUpdatesKeepEveryWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.GetOrCreate(ctx, "erin")
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "erin", func(p *types.Profile) error {
				p.FeedbackHistory = append(p.FeedbackHistory, types.FeedbackEntry{Feedback: "oui"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := s.Get(ctx, "erin")
	require.NoError(t, err)
	assert.Len(t, p.FeedbackHistory, writers)
}

func TestListUserIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"zoe", "adam"} {
		_, err := s.GetOrCreate(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, s.AppendEmotion(ctx, "adam", types.EmotionEntry{Emotion: "joyeux"}))

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"adam", "zoe"}, ids)
}

func TestGetOrCreateReadsZonelessTimestamps(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.profilesDir, "carol_profile.json")
	legacy := `{
  "user_id": "carol",
  "trust_score": 64,
  "speech_speed_avg": 120.0,
  "preferred_voice": "B",
  "feedback_history": [
    {"timestamp": "2024-05-01T10:00:00.123456", "voice_id": "B", "feedback": "clair", "emotion": "joyeux", "speech_speed_sample": null}
  ],
  "last_emotion": "joyeux",
  "comprehension_scores": [{"timestamp": "2024-05-01T10:05:00", "score": 0.8}],
  "dropout_risk_score": 0.1,
  "creation_date": "2024-04-30T08:00:00.000001",
  "last_update_date": "2024-05-01T10:05:00"
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	p, err := s.GetOrCreate(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, 64, p.TrustScore)
	require.Len(t, p.FeedbackHistory, 1)
	want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local)
	assert.True(t, want.Equal(p.FeedbackHistory[0].Timestamp), p.FeedbackHistory[0].Timestamp)
	assert.Equal(t, 2024, p.CreationDate.Year())
	assert.NoFileExists(t, path+".corrupt")
}

func TestGetOrCreateReplacesProfileWithBadTimestamp(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.profilesDir, "dave_profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_id":"dave","trust_score":10,"creation_date":"hier soir"}`), 0o644))

	p, err := s.GetOrCreate(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultTrustScore, p.TrustScore)
	assert.FileExists(t, path+".corrupt")
}
