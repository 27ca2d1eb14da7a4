// Package config resolves server configuration from a .env file and the
// environment, with working defaults for every value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for tunables that have no environment override.
const (
	DefaultChunkSize        = 200
	DefaultChunkOverlap     = 50
	DefaultTopK             = 5
	DefaultContextMaxLength = 4000
	DefaultHybridAlpha      = 0.5
	DefaultLLMModel         = "llama3-8b-8192"
	DefaultLLMBaseURL       = "https://api.groq.com/openai/v1"
)

// Config holds all server configuration, resolved from the environment.
type Config struct {
	// Data layout
	DataDir      string
	RawDir       string
	ProcessedDir string
	IndexDir     string

	// Chunking policy
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	TopK             int
	ContextMaxLength int
	HybridAlpha      float64

	// Generation capability
	LLMAPIKey  string
	LLMModel   string
	LLMBaseURL string

	// Embedding capability
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
}

// Load reads configuration from a .env file (if present) and the environment.
// Every value has a working default; only the data directories are created as
// a side effect.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	dataDir := getString("RAGMCP_DATA_DIR", "data")

	cfg := &Config{
		DataDir:      dataDir,
		RawDir:       filepath.Join(dataDir, "raw"),
		ProcessedDir: filepath.Join(dataDir, "processed"),
		IndexDir:     filepath.Join(dataDir, "index"),

		ChunkSize:    getInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap: getInt("CHUNK_OVERLAP", DefaultChunkOverlap),

		TopK:             getInt("TOP_K", DefaultTopK),
		ContextMaxLength: getInt("CONTEXT_MAX_LENGTH", DefaultContextMaxLength),
		HybridAlpha:      getFloat("HYBRID_ALPHA", DefaultHybridAlpha),

		LLMAPIKey:  firstEnv("GROQ_API_KEY", "OPENAI_API_KEY"),
		LLMModel:   getString("LLM_MODEL", DefaultLLMModel),
		LLMBaseURL: getString("LLM_BASE_URL", DefaultLLMBaseURL),

		EmbeddingProvider: getString("EMBEDDING_PROVIDER", ""),
		EmbeddingModel:    getString("EMBEDDING_MODEL", ""),
		EmbeddingAPIKey:   getString("OPENAI_API_KEY", ""),
		EmbeddingBaseURL:  getString("EMBEDDING_BASE_URL", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.RawDir, cfg.ProcessedDir, cfg.IndexDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.ContextMaxLength <= 0 {
		return fmt.Errorf("CONTEXT_MAX_LENGTH must be positive, got %d", c.ContextMaxLength)
	}
	if c.HybridAlpha < 0 || c.HybridAlpha > 1 {
		return fmt.Errorf("HYBRID_ALPHA must be in [0, 1], got %g", c.HybridAlpha)
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
