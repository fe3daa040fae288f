package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/easeaico/tryangel/internal/types"
)

// AppendInteraction adds an exchange to the shared interaction log.
func (s *Store) AppendInteraction(_ context.Context, entry types.Interaction) error {
	return appendEntry(s, filepath.Join(s.dir, interactionLogFile), entry)
}

// ListInteractions returns the logged exchanges of userID, or of every user
// when userID is empty.
func (s *Store) ListInteractions(_ context.Context, userID string) ([]types.Interaction, error) {
	all := readEntries[types.Interaction](s, filepath.Join(s.dir, interactionLogFile))
	if userID == "" {
		return all, nil
	}
	out := make([]types.Interaction, 0, len(all))
	for _, it := range all {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) AppendEmotion(_ context.Context, userID string, entry types.EmotionEntry) error {
	return appendEntry(s, s.userFile(userID, emotionLogSuffix), entry)
}

func (s *Store) ListEmotions(_ context.Context, userID string) ([]types.EmotionEntry, error) {
	return readEntries[types.EmotionEntry](s, s.userFile(userID, emotionLogSuffix)), nil
}

func (s *Store) AppendMemoryEvent(_ context.Context, userID string, event types.MemoryEvent) error {
	return appendEntry(s, s.userFile(userID, memoriesSuffix), event)
}

func (s *Store) ListMemoryEvents(_ context.Context, userID string) ([]types.MemoryEvent, error) {
	return readEntries[types.MemoryEvent](s, s.userFile(userID, memoriesSuffix)), nil
}

func (s *Store) AppendVoiceTrace(_ context.Context, userID string, trace types.VoiceTrace) error {
	return appendEntry(s, s.userFile(userID, voiceTraceSuffix), trace)
}

func (s *Store) ListVoiceTraces(_ context.Context, userID string) ([]types.VoiceTrace, error) {
	return readEntries[types.VoiceTrace](s, s.userFile(userID, voiceTraceSuffix)), nil
}

func appendEntry[T any](s *Store, path string, entry T) error {
	unlock := s.lock(path)
	defer unlock()

	entries, err := decodeEntries[T](path)
	switch {
	case err == nil:
	case errors.Is(err, errCorrupt):
		slog.Warn("log file is corrupt, starting a new one", "path", path, "error", err)
		quarantine(path)
		entries = nil
	default:
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	entries = append(entries, entry)
	if err := writeJSONAtomic(path, entries); err != nil {
		return fmt.Errorf("failed to append to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readEntries never fails: a missing or unreadable log reads as empty.
func readEntries[T any](s *Store, path string) []T {
	unlock := s.lock(path)
	defer unlock()

	entries, err := decodeEntries[T](path)
	if err != nil {
		slog.Warn("failed to read log file", "path", path, "error", err)
		return []T{}
	}
	if entries == nil {
		return []T{}
	}
	return entries
}

func decodeEntries[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []T
	if err := decodeJSON(path, data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
