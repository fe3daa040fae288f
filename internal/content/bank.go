// Package content serves the canned jokes, reassurance phrases and
// cybersecurity tips the companion can draw on.
package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed banks/*.json
var embedded embed.FS

const (
	// AnyCategory picks uniformly across every category of a bank.
	AnyCategory = "any"

	// ReassuranceFallback answers contexts the reassurance bank does not know.
	ReassuranceFallback = "Je suis là si tu as besoin. Tu n’es pas seul."

	jokesFile       = "humour_bank.json"
	reassuranceFile = "reassurance_bank.json"
	tipsFile        = "cybersecurity_bank.json"
)

var (
	// ErrUnknownCategory is matched by every UnknownCategoryError.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyBank is returned when a bank holds no entries at all.
	ErrEmptyBank = errors.New("content bank is empty")
)

// UnknownCategoryError names the requested category and the valid ones.
type UnknownCategoryError struct {
	Bank     string
	Category string
	Valid    []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: no %s category %q (valid: %s)", ErrUnknownCategory, e.Bank, e.Category, strings.Join(e.Valid, ", "))
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// Bank is a named table of phrases grouped by category.
type Bank struct {
	name    string
	entries map[string][]string
	intn    func(n int) int
}

// NewBank builds a bank from category entries. Category names are lowercased.
func NewBank(name string, entries map[string][]string) *Bank {
	normalized := make(map[string][]string, len(entries))
	for k, v := range entries {
		normalized[strings.ToLower(k)] = v
	}
	return &Bank{name: name, entries: normalized, intn: rand.IntN}
}

// Categories returns the category names in sorted order.
func (b *Bank) Categories() []string {
	out := make([]string, 0, len(b.entries))
	for c := range b.entries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Pick returns a random entry of category, or of the whole bank for AnyCategory.
func (b *Bank) Pick(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == AnyCategory {
		var all []string
		for _, c := range b.Categories() {
			all = append(all, b.entries[c]...)
		}
		if len(all) == 0 {
			return "", ErrEmptyBank
		}
		return all[b.intn(len(all))], nil
	}

	selected := b.entries[category]
	if len(selected) == 0 {
		return "", &UnknownCategoryError{Bank: b.name, Category: category, Valid: b.Categories()}
	}
	return selected[b.intn(len(selected))], nil
}

// Library groups the three banks the companion uses.
type Library struct {
	Jokes       *Bank
	Reassurance *Bank
	Tips        *Bank
}

// Load reads the banks from dir. Files missing from dir, or an empty dir,
// fall back to the built-in banks.
func Load(dir string) (*Library, error) {
	jokes, err := loadBank(dir, "joke", jokesFile)
	if err != nil {
		return nil, err
	}
	reassurance, err := loadBank(dir, "reassurance", reassuranceFile)
	if err != nil {
		return nil, err
	}
	tips, err := loadBank(dir, "tip", tipsFile)
	if err != nil {
		return nil, err
	}
	return &Library{Jokes: jokes, Reassurance: reassurance, Tips: tips}, nil
}

// Reassure returns a phrase for context, or ReassuranceFallback.
func (l *Library) Reassure(context string) string {
	key := strings.ToLower(strings.TrimSpace(context))
	if len(l.Reassurance.entries[key]) == 0 {
		return ReassuranceFallback
	}
	phrase, err := l.Reassurance.Pick(key)
	if err != nil {
		return ReassuranceFallback
	}
	return phrase
}

func loadBank(dir, name, file string) (*Bank, error) {
	var (
		data []byte
		err  error
	)
	if dir != "" {
		data, err = os.ReadFile(filepath.Join(dir, file))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}
	if data == nil {
		data, err = embedded.ReadFile("banks/" + file)
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in %s: %w", file, err)
		}
	}
	var entries map[string][]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return NewBank(name, entries), nil
}
