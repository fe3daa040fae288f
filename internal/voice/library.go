// Package voice stores synthesized clips and serves them back by file name.
package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFilename is returned for names that do not denote a stored clip.
var ErrInvalidFilename = errors.New("invalid voice filename")

var clipName = regexp.MustCompile(`^response_[0-9a-f-]{36}\.[a-z0-9]{2,5}$`)

// Library is a directory of generated clips.
type Library struct {
	dir string
}

// NewLibrary creates dir when needed.
func NewLibrary(dir string) (*Library, error) {
	if dir == "" {
		return nil, errors.New("voice directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create voice directory: %w", err)
	}
	return &Library{dir: dir}, nil
}

// Save writes audio as response_<uuid>.<ext> and returns the file name and path.
func (l *Library) Save(audio []byte, ext string) (string, string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "wav"
	}
	name := fmt.Sprintf("response_%s.%s", uuid.NewString(), ext)
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write voice clip: %w", err)
	}
	return name, path, nil
}

// Path resolves a clip name to its location, rejecting anything that is not
// a clip written by Save.
func (l *Library) Path(name string) (string, error) {
	if !clipName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	path := filepath.Join(l.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
