package prompt

import (
	"bytes"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/easeaico/tryangel/internal/types"
)

// slowSpeechThreshold is the words-per-minute average under which replies are simplified.
const slowSpeechThreshold = 120

// BuildContext contains all inputs for prompt assembly.
type BuildContext struct {
	Profile     *types.Profile
	Emotion     string
	Memories    []string
	History     []types.Interaction
	UserMessage string
}

// Builder assembles the companion prompt.
type Builder struct {
	historyLimit int
	nowFunc      func() time.Time
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &Builder{
		historyLimit: historyLimit,
		nowFunc:      time.Now,
	}
}

// Build returns the system prompt, the recent exchanges and the user message.
func (b *Builder) Build(ctx BuildContext) ([]*genai.Content, error) {
	if ctx.Profile == nil {
		return nil, fmt.Errorf("profile is required")
	}

	emotion := ctx.Emotion
	if emotion == "" {
		emotion = ctx.Profile.LastEmotion
	}
	data := struct {
		TrustScore     int
		Emotion        string
		PreferredVoice string
		SlowSpeech     bool
		Now            string
		Memories       []string
	}{
		TrustScore:     ctx.Profile.TrustScore,
		Emotion:        emotion,
		PreferredVoice: ctx.Profile.PreferredVoice,
		SlowSpeech:     ctx.Profile.SpeechSpeedAvg > 0 && ctx.Profile.SpeechSpeedAvg < slowSpeechThreshold,
		Now:            b.nowFunc().Format("02/01/2006 15:04"),
		Memories:       ctx.Memories,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	history := ctx.History
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}

	contents := make([]*genai.Content, 0, 2+2*len(history))
	contents = append(contents, genai.NewContentFromText(buf.String(), "system"))
	for _, h := range history {
		contents = append(contents,
			genai.NewContentFromText(h.Message, "user"),
			genai.NewContentFromText(h.Response, "model"))
	}
	contents = append(contents, genai.NewContentFromText(ctx.UserMessage, "user"))
	return contents, nil
}
