// Package llm provides generation provider clients and the model
// fallback invoker.
package llm

import (
	"context"
	"fmt"
)

// Client is the interface for generation providers: given a prompt and
// a model identifier, return generated text or fail.
type Client interface {
	// Generate sends a single-prompt generation request.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of generation provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a new generation client for the given provider.
func NewClient(ctx context.Context, provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
