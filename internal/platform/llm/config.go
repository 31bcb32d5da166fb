package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config lists the providers to try, in order. Providers without an API key
// are skipped.
type Config struct {
	Providers []string        `yaml:"providers"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini"`
}

func DefaultProviders() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

// NewFromConfig builds the provider chain. A nil chain with a nil error
// means generation runs without a model.
func NewFromConfig(ctx context.Context, cfg Config, log *logger.Logger) (*Chain, error) {
	if log == nil {
		log = logger.Nop()
	}
	order := cfg.Providers
	if len(order) == 0 {
		order = DefaultProviders()
	}

	var providers []Provider
	for _, name := range order {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ProviderOpenAI:
			if cfg.OpenAI.APIKey == "" {
				continue
			}
			p, err := NewOpenAIProvider(cfg.OpenAI)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case ProviderAnthropic:
			if cfg.Anthropic.APIKey == "" {
				continue
			}
			p, err := NewAnthropicProvider(cfg.Anthropic)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case ProviderGemini:
			if cfg.Gemini.APIKey == "" {
				continue
			}
			p, err := NewGeminiProvider(ctx, cfg.Gemini)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		default:
			return nil, fmt.Errorf("unknown llm provider %q", name)
		}
	}

	chain := NewChain(log, providers...)
	if chain == nil {
		log.Warn("no llm provider configured; content generation uses templates")
		return nil, nil
	}
	log.Info("llm providers configured", "models", chain.ModelID())
	return chain, nil
}
