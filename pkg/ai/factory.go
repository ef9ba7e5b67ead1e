package ai

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Supported provider tags.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// New creates a provider for the given tag.
func New(provider, apiKey string, logger zerolog.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, logger)
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, logger)
	case ProviderGemini:
		return NewGeminiProvider(apiKey, logger)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, anthropic, gemini)", provider)
	}
}
