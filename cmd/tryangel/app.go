package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/easeaico/tryangel/internal/companion"
	"github.com/easeaico/tryangel/internal/config"
	"github.com/easeaico/tryangel/internal/content"
	"github.com/easeaico/tryangel/internal/emotion"
	"github.com/easeaico/tryangel/internal/filestore"
	"github.com/easeaico/tryangel/internal/learner"
	"github.com/easeaico/tryangel/internal/memory"
	"github.com/easeaico/tryangel/internal/models"
	"github.com/easeaico/tryangel/internal/prompt"
	"github.com/easeaico/tryangel/internal/storage"
	"github.com/easeaico/tryangel/internal/voice"
)

// repository is implemented by both storage backends.
type repository interface {
	learner.ProfileRepo
	memory.Repo
}

// openRepository opens the configured backend. The returned func releases it.
func openRepository(ctx context.Context, cfg config.Config) (repository, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		store, err := storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return store, store.Close, nil
	default:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		return store, func() {}, nil
	}
}

// newCompanion assembles the companion service from configuration.
func newCompanion(ctx context.Context, cfg config.Config, repo repository) (*companion.Service, *voice.Library, error) {
	lib, err := content.Load(cfg.ContentDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load content banks: %w", err)
	}
	kb, err := learner.LoadKnowledgeBase(cfg.KnowledgeBasePath)
	if err != nil {
		return nil, nil, err
	}
	voices, err := voice.NewLibrary(cfg.VoiceDir)
	if err != nil {
		return nil, nil, err
	}

	deps := companion.Deps{
		Learner:       learner.NewService(repo),
		Memory:        memory.NewService(repo),
		Content:       lib,
		Knowledge:     kb,
		Voices:        voices,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	if cfg.SpeechEnabled() {
		speech, err := models.NewGeminiSpeechSynthesizer(ctx, cfg.GoogleAPIKey, cfg.TTSModel, cfg.TTSVoice, cfg.TTSLanguage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
		}
		deps.Speech = speech
	} else {
		slog.Warn("GOOGLE_API_KEY not set, replies will not be voiced")
	}

	if cfg.LLMEnabled() {
		llm, err := models.NewOpenAIModel(cfg.LLMModel, cfg.LLMAPIKey, cfg.LLMBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create llm: %w", err)
		}
		deps.Responder = companion.NewLLMResponder(llm, prompt.NewBuilder(0))
		deps.Emotions = emotion.NewAnalyzer(llm)
	} else {
		slog.Info("LLM_API_KEY not set, using canned and template replies")
	}

	svc, err := companion.NewService(deps)
	if err != nil {
		return nil, nil, err
	}
	return svc, voices, nil
}
