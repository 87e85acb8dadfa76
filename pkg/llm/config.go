package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Config selects and configures the LLM backend.
type Config struct {
	Provider     string  `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey string  `env:"OPENAI_API_KEY"`
	GoogleAPIKey string  `env:"GOOGLE_API_KEY"`
	Model        string  `env:"LLM_MODEL"`
	MaxTokens    int     `env:"LLM_MAX_TOKENS" envDefault:"1000"`
	Temperature  float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
}

// New builds the provider named in cfg.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		opts := []OpenAIOption{
			WithOpenAIMaxTokens(cfg.MaxTokens),
			WithOpenAITemperature(cfg.Temperature),
		}
		if cfg.Model != "" {
			opts = append(opts, WithOpenAIModel(cfg.Model))
		}
		c, err := NewOpenAI(cfg.OpenAIAPIKey, opts...)
		if err != nil {
			return Provider{}, err
		}
		files, err := NewOpenAIFiles(cfg.OpenAIAPIKey)
		if err != nil {
			return Provider{}, err
		}
		return Provider{Name: ProviderOpenAI, Completer: c, Files: files}, nil

	case ProviderGoogle:
		opts := []GoogleOption{
			WithGoogleMaxTokens(cfg.MaxTokens),
			WithGoogleTemperature(cfg.Temperature),
		}
		if cfg.Model != "" {
			opts = append(opts, WithGoogleModel(cfg.Model))
		}
		g, err := NewGoogle(ctx, cfg.GoogleAPIKey, opts...)
		if err != nil {
			return Provider{}, err
		}
		return Provider{Name: ProviderGoogle, Completer: g, Files: g.Files()}, nil
	}

	return Provider{}, fmt.Errorf("%w: %q", ErrProviderNotSupported, cfg.Provider)
}
