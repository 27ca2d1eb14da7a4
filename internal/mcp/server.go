package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/raglab/rag-mcp/internal/agent"
	"github.com/raglab/rag-mcp/internal/chunker"
	"github.com/raglab/rag-mcp/internal/compressor"
	"github.com/raglab/rag-mcp/internal/config"
	"github.com/raglab/rag-mcp/internal/embedder"
	"github.com/raglab/rag-mcp/internal/ingestor"
	"github.com/raglab/rag-mcp/internal/llm"
	"github.com/raglab/rag-mcp/internal/planner"
	"github.com/raglab/rag-mcp/internal/reranker"
	"github.com/raglab/rag-mcp/internal/router"
	"github.com/raglab/rag-mcp/internal/searcher"
	"github.com/raglab/rag-mcp/internal/stats"
	"github.com/raglab/rag-mcp/internal/vectorstore"
)

const (
	// ServerName is the MCP server name
	ServerName = "rag-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies. Generation
// (the answer and agent tools) is only available when an LLM API key is
// configured; retrieval and ingestion work without one.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	store    *vectorstore.Store
	searcher *searcher.Searcher
	ingestor *ingestor.Ingestor
	planner  *planner.Planner
	agent    *agent.Agent
	stats    *stats.Collector
}

// NewServer creates a new MCP server instance with the full pipeline wired.
func NewServer(cfg *config.Config) (*Server, error) {
	emb, err := embedder.New(embedder.Config{
		Provider: cfg.EmbeddingProvider,
		APIKey:   cfg.EmbeddingAPIKey,
		BaseURL:  cfg.EmbeddingBaseURL,
		Model:    cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := vectorstore.New(cfg.IndexDir, emb.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	rr := reranker.New(reranker.NewEmbeddingScorer(emb))
	srch := searcher.New(store, emb, rr, searcher.WithAlpha(cfg.HybridAlpha))

	ch := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	ing := ingestor.New(ch, emb, store, srch)

	st := stats.New(cfg.IndexDir, cfg.RawDir, cfg.ProcessedDir)

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		store:    store,
		searcher: srch,
		ingestor: ing,
		stats:    st,
	}

	// Generation is optional: without credentials the answer and agent
	// tools report unavailable instead of failing at startup.
	if cfg.LLMAPIKey != "" {
		client, err := llm.New(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}

		comp := compressor.New(cfg.ContextMaxLength, client)
		s.planner = planner.New(router.New(), srch, comp, client, cfg.TopK)
		s.agent = agent.New(client, s.planner, ing, st,
			func(ctx context.Context, query string, topK int) any {
				return s.renderSearch(ctx, query, topK)
			}, cfg.TopK)
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(healthTool(), s.handleHealth)
	s.mcp.AddTool(ingestTool(), s.handleIngest)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(answerTool(), s.handleAnswer)
	s.mcp.AddTool(agentTool(), s.handleAgent)
}
