package app

import (
	"context"
	"fmt"
	"log/slog"

	"storyreel/internal/gemini"
	"storyreel/internal/llm"
	"storyreel/internal/llm/groq"
	"storyreel/internal/storage"
	"storyreel/pkg/config"
	"storyreel/pkg/prompts"
)

func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := loadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, err
	}

	gateway, err := gemini.NewClient(ctx, cfg, p)
	if err != nil {
		return nil, err
	}

	var writer llm.ScriptWriter = gateway
	if cfg.Text.Provider == config.ProviderGroq {
		writer, err = groq.NewClient(cfg.GroqAPIKey, groq.Options{
			Model:            cfg.Groq.Model,
			Prompts:          p,
			Lenient:          cfg.Gemini.Lenient,
			DialogueLanguage: cfg.Affiliate.DialogueLanguage,
		})
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}

	slog.Debug("Service ready",
		"text_provider", cfg.Text.Provider,
		"backend", cfg.Gemini.Backend,
		"gcs", cfg.GCSBucket != "",
	)

	return NewService(ServiceOptions{
		Config:  cfg,
		Writer:  writer,
		Images:  gateway,
		Storage: store,
	}), nil
}

func loadPrompts(path string) (*prompts.Prompts, error) {
	if path != "" {
		return prompts.LoadFrom(path)
	}
	return prompts.Load()
}
