package encoder

import (
	"fmt"
	"os"
	"strings"
)

// Config holds encoder configuration
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	CacheSize int
}

// New creates an encoder with explicit configuration.
func New(cfg Config) (Encoder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIEncoder(cfg.APIKey, cfg.Model, cache)
	case ProviderJina:
		return NewJinaEncoder(cfg.APIKey, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalEncoder(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an encoder based on environment variables.
// Priority:
//  1. VUEON_ENCODER_PROVIDER (openai, jina, local)
//  2. Check for API keys: OPENAI_API_KEY, JINA_API_KEY
//  3. Default to local if no API keys found
func NewFromEnv() (Encoder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	jinaKey := os.Getenv(EnvJinaAPIKey)

	cache := NewCache(10000) // Default cache size

	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIEncoder(openaiKey, "", cache)
		case ProviderJina:
			return NewJinaEncoder(jinaKey, "", cache)
		case ProviderLocal:
			return NewLocalEncoder(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	// Auto-detect based on available API keys
	if openaiKey != "" {
		return NewOpenAIEncoder(openaiKey, "", cache)
	}
	if jinaKey != "" {
		return NewJinaEncoder(jinaKey, "", cache)
	}

	// Fallback to local provider
	return NewLocalEncoder(cache)
}

// DetectProvider returns the provider NewFromEnv would pick for the current
// environment.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}

	return ProviderLocal
}
