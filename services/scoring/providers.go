package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var ErrAPIKeyRequired = errors.New("API key is required")

type ProviderConfig struct {
	Name      string
	APIKey    string
	Model     string
	MaxTokens int
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}

	switch strings.ToLower(cfg.Name) {
	case ProviderGemini, "":
		return NewGeminiProvider(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scorer provider %q", cfg.Name)
	}
}
