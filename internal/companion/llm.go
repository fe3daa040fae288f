package companion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/tryangel/internal/prompt"
	"github.com/easeaico/tryangel/internal/utils"
)

// LLMResponder answers with a chat model primed with the user's profile.
type LLMResponder struct {
	model   model.LLM
	builder *prompt.Builder
}

// NewLLMResponder returns a Responder backed by m.
func NewLLMResponder(m model.LLM, builder *prompt.Builder) *LLMResponder {
	if builder == nil {
		builder = prompt.NewBuilder(0)
	}
	return &LLMResponder{model: m, builder: builder}
}

func (r *LLMResponder) Respond(ctx context.Context, req ReplyRequest) (string, error) {
	if r == nil || r.model == nil {
		return "", fmt.Errorf("llm responder not configured")
	}
	contents, err := r.builder.Build(prompt.BuildContext{
		Profile:     req.Profile,
		Emotion:     req.Emotion,
		Memories:    req.Memories,
		History:     req.History,
		UserMessage: req.Message,
	})
	if err != nil {
		return "", err
	}

	llmReq := &model.LLMRequest{
		Contents: contents,
		Config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			MaxOutputTokens: 256,
		},
	}
	var text string
	for resp, err := range r.model.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", fmt.Errorf("failed to generate reply: %w", err)
		}
		if resp != nil {
			text += utils.ExtractContentText(resp.Content)
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty reply from model %s", r.model.Name())
	}
	return text, nil
}
