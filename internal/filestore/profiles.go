package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/easeaico/tryangel/internal/types"
)

// Get returns the stored profile or types.ErrNotFound.
func (s *Store) Get(_ context.Context, userID string) (*types.Profile, error) {
	path := s.userFile(userID, profileSuffix)
	unlock := s.lock(path)
	defer unlock()

	return readProfile(path)
}

// GetOrCreate returns the stored profile, writing a default one when none
// exists. A corrupt profile file is moved aside and replaced by defaults.
func (s *Store) GetOrCreate(_ context.Context, userID string) (*types.Profile, error) {
	path := s.userFile(userID, profileSuffix)
	unlock := s.lock(path)
	defer unlock()

	p, err := readProfile(path)
	if err == nil {
		return p, nil
	}
	switch {
	case errors.Is(err, types.ErrNotFound):
	case errors.Is(err, errCorrupt):
		slog.Warn("profile file is corrupt, recreating", "user_id", userID, "error", err)
		quarantine(path)
	default:
		return nil, err
	}

	p = types.NewProfile(userID, s.nowFunc())
	if err := writeJSONAtomic(path, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

// Update applies fn to the stored profile and saves the result while holding
// the user's lock. Nothing is written when fn fails.
func (s *Store) Update(_ context.Context, userID string, fn func(*types.Profile) error) (*types.Profile, error) {
	path := s.userFile(userID, profileSuffix)
	unlock := s.lock(path)
	defer unlock()

	p, err := readProfile(path)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := writeJSONAtomic(path, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p.Clone(), nil
}

// ListUserIDs returns the ids of every stored profile, sorted.
func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.profilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, profileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

func readProfile(path string) (*types.Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var p types.Profile
	if err := decodeJSON(path, data, &p); err != nil {
		return nil, err
	}
	if p.FeedbackHistory == nil {
		p.FeedbackHistory = []types.FeedbackEntry{}
	}
	if p.ComprehensionScores == nil {
		p.ComprehensionScores = []types.ComprehensionEntry{}
	}
	return &p, nil
}
