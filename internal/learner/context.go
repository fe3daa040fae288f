package learner

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed knowledge_base.json
var defaultKnowledgeBase []byte

// KnowledgeBase maps a topic category to the keywords that reveal it.
type KnowledgeBase map[string][]string

// LoadKnowledgeBase reads a knowledge base from path, or the built-in one when path is empty.
func LoadKnowledgeBase(path string) (KnowledgeBase, error) {
	raw := defaultKnowledgeBase
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge base: %w", err)
		}
		raw = data
	}
	var kb KnowledgeBase
	if err := json.Unmarshal(raw, &kb); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}
	return kb, nil
}

// Categories returns the knowledge base categories in sorted order.
func (kb KnowledgeBase) Categories() []string {
	out := make([]string, 0, len(kb))
	for c := range kb {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AnalyzeTextContext returns, per category, the keywords contained in input.
// Categories without a match are left out.
func AnalyzeTextContext(input string, kb KnowledgeBase) map[string][]string {
	context := make(map[string][]string)
	text := strings.ToLower(input)
	for category, keywords := range kb {
		var found []string
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			context[category] = found
		}
	}
	return context
}
