package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderFactory creates providers based on an explicit provider choice
type ProviderFactory struct {
	groqAPIKey   string
	openaiAPIKey string
	geminiAPIKey string
	baseURL      string
}

// NewProviderFactory creates a new provider factory. baseURL overrides the
// endpoint of OpenAI-compatible providers and may be empty.
func NewProviderFactory(groqAPIKey, openaiAPIKey, geminiAPIKey, baseURL string) *ProviderFactory {
	return &ProviderFactory{
		groqAPIKey:   groqAPIKey,
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		baseURL:      baseURL,
	}
}

// GetProvider returns the provider registered under providerName.
// Call it once at startup; the result is safe for concurrent use.
func (f *ProviderFactory) GetProvider(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case providerNameGroq:
		if f.groqAPIKey == "" {
			return nil, fmt.Errorf("groq API key not configured")
		}
		return NewGroqProvider(f.groqAPIKey, f.baseURL), nil

	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		if f.baseURL != "" {
			return newOpenAICompatibleProvider(providerNameOpenAI, f.openaiAPIKey, f.baseURL, true), nil
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil

	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		provider, err := NewGeminiProvider(ctx, f.geminiAPIKey)
		if err != nil {
			return nil, err
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: groq, openai, gemini)", providerName)
	}
}
