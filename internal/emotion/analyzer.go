package emotion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/tryangel/internal/utils"
)

// Analyzer classifies the emotion expressed in a user message.
type Analyzer struct {
	model model.LLM
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(m model.LLM) *Analyzer {
	return &Analyzer{model: m}
}

// Analyze returns the emotion label for text, Neutre when nothing matches.
func (a *Analyzer) Analyze(ctx context.Context, text string) (string, error) {
	if a == nil || a.model == nil {
		return Neutre, fmt.Errorf("emotion analyzer not configured")
	}

	if strings.TrimSpace(text) == "" {
		return Neutre, nil
	}

	system := "Tu es un analyseur d'émotions. Réponds uniquement par un seul mot parmi : " +
		strings.Join(Labels, ", ") + ". N'ajoute rien d'autre."
	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText(system, "system"),
			genai.NewContentFromText(text, "user"),
		},
	}

	seq := a.model.GenerateContent(ctx, req, false)
	var resp *model.LLMResponse
	var err error
	seq(func(r *model.LLMResponse, e error) bool {
		resp = r
		err = e
		return false
	})
	if err != nil {
		return Neutre, err
	}

	label := strings.Trim(extractLabel(resp), ".!« »\"'")
	if IsLabel(label) {
		return label, nil
	}
	return Neutre, nil
}

func extractLabel(resp *model.LLMResponse) string {
	if resp == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(utils.ExtractContentText(resp.Content)))
}
