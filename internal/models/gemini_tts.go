package models

import (
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/easeaico/tryangel/internal/voice"
)

const (
	defaultPCMRate     = 24000
	defaultTTSVoice    = "Kore"
	defaultTTSLanguage = "fr-FR"
)

// SpeechSynthesizer turns reply text into audio with a Gemini TTS model.
type SpeechSynthesizer struct {
	client   *genai.Client
	model    string
	voice    string
	language string
}

// NewGeminiSpeechSynthesizer returns a synthesizer using a prebuilt voice.
func NewGeminiSpeechSynthesizer(ctx context.Context, apiKey, model, voiceName, language string) (*SpeechSynthesizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if strings.TrimSpace(voiceName) == "" {
		voiceName = defaultTTSVoice
	}
	if strings.TrimSpace(language) == "" {
		language = defaultTTSLanguage
	}
	return &SpeechSynthesizer{
		client:   client,
		model:    strings.TrimSpace(model),
		voice:    strings.TrimSpace(voiceName),
		language: strings.TrimSpace(language),
	}, nil
}

// Synthesize returns the audio for text and its file extension.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if s == nil || s.client == nil {
		return nil, "", fmt.Errorf("speech synthesizer not configured")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", fmt.Errorf("text cannot be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: s.language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.voice,
				},
			},
		},
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), config)
	if err != nil {
		return nil, "", fmt.Errorf("failed to synthesize speech: %w", err)
	}
	return audioFromResponse(resp)
}

// audioFromResponse extracts the first inline audio part. Raw PCM is wrapped
// in a WAV container; encoded formats are returned as they are.
func audioFromResponse(resp *genai.GenerateContentResponse) ([]byte, string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, "", fmt.Errorf("empty speech response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(part.InlineData.MIMEType)
		if err != nil {
			mediaType = strings.ToLower(strings.TrimSpace(part.InlineData.MIMEType))
		}
		switch strings.ToLower(mediaType) {
		case "audio/wav", "audio/x-wav", "audio/wave":
			return part.InlineData.Data, "wav", nil
		case "audio/mpeg", "audio/mp3":
			return part.InlineData.Data, "mp3", nil
		case "audio/ogg":
			return part.InlineData.Data, "ogg", nil
		default:
			rate := defaultPCMRate
			if r, err := strconv.Atoi(params["rate"]); err == nil && r > 0 {
				rate = r
			}
			return voice.EncodeWAV(part.InlineData.Data, rate, 1, 16), "wav", nil
		}
	}
	return nil, "", fmt.Errorf("audio data missing in response")
}
