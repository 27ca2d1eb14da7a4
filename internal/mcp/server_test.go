package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/rag-mcp/internal/config"
)

// newTestConfig builds a keyless configuration over a temp data layout.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dataDir := t.TempDir()
	cfg := &config.Config{
		DataDir:      dataDir,
		RawDir:       filepath.Join(dataDir, "raw"),
		ProcessedDir: filepath.Join(dataDir, "processed"),
		IndexDir:     filepath.Join(dataDir, "index"),

		ChunkSize:    10,
		ChunkOverlap: 2,

		TopK:             5,
		ContextMaxLength: 4000,
		HybridAlpha:      0.5,

		LLMModel:   config.DefaultLLMModel,
		LLMBaseURL: config.DefaultLLMBaseURL,
	}

	for _, dir := range []string{cfg.RawDir, cfg.ProcessedDir, cfg.IndexDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s, err := NewServer(newTestConfig(t))
	require.NoError(t, err)
	return s
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultJSON decodes the text payload of a tool result.
func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()

	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestNewServer_KeylessComponents(t *testing.T) {
	s := newTestServer(t)

	assert.NotNil(t, s.store)
	assert.NotNil(t, s.searcher)
	assert.NotNil(t, s.ingestor)
	assert.NotNil(t, s.stats)

	// Without credentials the generation surfaces stay dark.
	assert.Nil(t, s.planner)
	assert.Nil(t, s.agent)
}

func TestNewServer_WithKeyEnablesGeneration(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.LLMAPIKey = "gsk_test"

	s, err := NewServer(cfg)
	require.NoError(t, err)

	assert.NotNil(t, s.planner)
	assert.NotNil(t, s.agent)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleHealth(context.Background(), callRequest("health", map[string]interface{}{}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, false, payload["generation_available"])
	assert.Contains(t, payload, "stats")
}

func TestHandleIngest_ThenSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleIngest(ctx, callRequest("ingest", map[string]interface{}{
		"documents": []interface{}{
			"the moon orbits the earth every month",
			"tides follow the moon's gravitational pull",
		},
	}))
	require.NoError(t, err)

	payload := resultJSON(t, result)
	assert.Equal(t, float64(2), payload["documents"])
	assert.Greater(t, payload["chunks"], float64(0))

	result, err = s.handleSearch(ctx, callRequest("search", map[string]interface{}{
		"query": "moon",
	}))
	require.NoError(t, err)

	payload = resultJSON(t, result)
	assert.Equal(t, "moon", payload["query"])
	assert.Greater(t, payload["count"], float64(0))

	results, ok := payload["results"].([]interface{})
	require.True(t, ok)
	first := results[0].(map[string]interface{})
	assert.Contains(t, first["text"], "moon")
	assert.Contains(t, first, "hybrid_score")
}

func TestHandleIngest_Validation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("missing documents", func(t *testing.T) {
		_, err := s.handleIngest(ctx, callRequest("ingest", map[string]interface{}{}))
		requireMCPError(t, err, ErrorCodeNoDocuments)
	})

	t.Run("wrong element type", func(t *testing.T) {
		_, err := s.handleIngest(ctx, callRequest("ingest", map[string]interface{}{
			"documents": []interface{}{"ok", 42},
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("encoded JSON string form", func(t *testing.T) {
		result, err := s.handleIngest(ctx, callRequest("ingest", map[string]interface{}{
			"documents": `["a document sent as an encoded array"]`,
		}))
		require.NoError(t, err)
		payload := resultJSON(t, result)
		assert.Equal(t, float64(1), payload["documents"])
	})
}

func TestHandleSearch_Validation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("missing query", func(t *testing.T) {
		_, err := s.handleSearch(ctx, callRequest("search", map[string]interface{}{}))
		requireMCPError(t, err, ErrorCodeEmptyQuery)
	})

	t.Run("top_k out of range", func(t *testing.T) {
		_, err := s.handleSearch(ctx, callRequest("search", map[string]interface{}{
			"query": "anything",
			"top_k": float64(500),
		}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("empty corpus returns empty results", func(t *testing.T) {
		result, err := s.handleSearch(ctx, callRequest("search", map[string]interface{}{
			"query": "anything",
		}))
		require.NoError(t, err)
		payload := resultJSON(t, result)
		assert.Equal(t, float64(0), payload["count"])
	})
}

func TestHandleAnswer_WithoutCredentials(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAnswer(context.Background(), callRequest("answer", map[string]interface{}{
		"question": "what now",
	}))
	requireMCPError(t, err, ErrorCodeLLMUnavailable)
}

func TestHandleAnswer_Validation(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAnswer(context.Background(), callRequest("answer", map[string]interface{}{}))
	requireMCPError(t, err, ErrorCodeEmptyQuery)
}

func TestHandleAgent_WithoutCredentials(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAgent(context.Background(), callRequest("agent", map[string]interface{}{
		"query": "do something",
	}))
	requireMCPError(t, err, ErrorCodeLLMUnavailable)
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()

	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, code, mcpErr.Code)
}

func TestStringSlice(t *testing.T) {
	t.Run("native array", func(t *testing.T) {
		got, err := stringSlice([]interface{}{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("encoded string", func(t *testing.T) {
		got, err := stringSlice(`["a","b"]`)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("nil", func(t *testing.T) {
		got, err := stringSlice(nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("bad element", func(t *testing.T) {
		_, err := stringSlice([]interface{}{1})
		assert.Error(t, err)
	})

	t.Run("bad type", func(t *testing.T) {
		_, err := stringSlice(42)
		assert.Error(t, err)
	})
}
