package embedder

import (
	"fmt"
	"strings"
)

// Config holds embedder construction parameters.
type Config struct {
	Provider  string // "openai", "local", or empty for auto-detection
	APIKey    string
	BaseURL   string
	Model     string
	CacheSize int
}

// New creates an embedder from explicit configuration. With no provider set,
// an API key selects the OpenAI-compatible provider and its absence falls
// back to the local provider, keeping the server usable without credentials.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	case "":
		if cfg.APIKey != "" {
			return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cache)
		}
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, cfg.Provider)
	}
}
