package models

import (
	"context"
	"fmt"
	"time"
)

// NewLLMProvider builds a backend by name. "gemini" is the only grounded
// provider; the rest answer without search augmentation.
func NewLLMProvider(ctx context.Context, provider, model, apiKey string, timeout time.Duration) (Agent, error) {
	switch provider {
	case "gemini", "google":
		return NewGeminiLLM(ctx, model, apiKey, timeout)
	case "openai":
		return NewOpenAILLM(model, apiKey, timeout), nil
	case "anthropic", "claude":
		return NewAnthropicLLM(model, apiKey, timeout), nil
	case "ollama":
		return NewOllamaLLM(model, timeout)
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
