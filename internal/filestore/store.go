// Package filestore keeps profiles and logs as indented JSON files on disk.
//
// Each file maps to one of a fixed set of locks and is rewritten through a
// temporary file and a rename, so concurrent updates of one user never
// interleave or lose writes.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	profilesDirName    = "profiles"
	interactionLogFile = "tryangel_memory_log.json"

	profileSuffix    = "_profile.json"
	emotionLogSuffix = "_emotion_log.json"
	memoriesSuffix   = "_memories_log.json"
	voiceTraceSuffix = "_voice_trace.json"

	// lockStripes bounds lock memory regardless of how many users exist.
	lockStripes = 64
)

// Store is a file-backed profile and log store rooted at a data directory.
type Store struct {
	dir         string
	profilesDir string
	nowFunc     func() time.Time

	locks [lockStripes]sync.Mutex
}

// New creates the data directory layout under dir.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	profilesDir := filepath.Join(dir, profilesDirName)
	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profiles directory: %w", err)
	}
	return &Store{
		dir:         dir,
		profilesDir: profilesDir,
		nowFunc:     time.Now,
	}, nil
}

// lock serializes access to one file and returns the matching unlock. Files
// sharing a stripe also serialize, so callers must never hold two locks.
func (s *Store) lock(path string) func() {
	l := &s.locks[stripe(path)]
	l.Lock()
	return l.Unlock
}

func stripe(path string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return h.Sum32() % lockStripes
}

func (s *Store) userFile(userID, suffix string) string {
	return filepath.Join(s.profilesDir, userID+suffix)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// errCorrupt marks a file that was read but could not be decoded, whatever
// the decoder complained about.
var errCorrupt = errors.New("corrupt file")

func decodeJSON(path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w %s: %w", errCorrupt, filepath.Base(path), err)
	}
	return nil
}

// quarantine moves an unreadable file aside so it can be inspected later.
func quarantine(path string) {
	target := path + ".corrupt"
	if err := os.Rename(path, target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to move corrupt file aside", "path", path, "error", err)
		return
	}
	slog.Warn("moved corrupt file aside", "path", path, "target", target)
}
