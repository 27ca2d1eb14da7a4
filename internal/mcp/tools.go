package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery     = -32001 // Query parameter is empty
	ErrorCodeNoDocuments    = -32002 // Documents parameter is empty
	ErrorCodeLLMUnavailable = -32003 // No LLM credentials configured
)

// handleHealth handles the health tool invocation
func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"status": "healthy",
		"stats":  s.stats.System(),
		"index": map[string]interface{}{
			"chunks_loaded": s.store.Len(),
			"dimension":     s.store.Dimension(),
		},
		"generation_available": s.planner != nil,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIngest handles the ingest tool invocation
func (s *Server) handleIngest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documents, err := stringSlice(args["documents"])
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "documents must be an array of strings", map[string]interface{}{
			"param":  "documents",
			"reason": err.Error(),
		})
	}
	if len(documents) == 0 {
		return nil, newMCPError(ErrorCodeNoDocuments, "documents parameter is required and cannot be empty", map[string]interface{}{
			"param":  "documents",
			"reason": "missing or empty",
		})
	}

	ingStats, err := s.ingestor.Ingest(ctx, documents)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"documents":   ingStats.Documents,
		"chunks":      ingStats.Chunks,
		"duration_ms": ingStats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK := getIntDefault(args, "top_k", s.cfg.TopK)
	if topK < 1 || topK > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	return mcp.NewToolResultText(formatJSON(s.renderSearch(ctx, query, topK))), nil
}

// handleAnswer handles the answer tool invocation
func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	question, ok := args["question"].(string)
	if !ok || question == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "question parameter is required and cannot be empty", map[string]interface{}{
			"param":  "question",
			"reason": "missing or empty",
		})
	}

	if s.planner == nil {
		return nil, newMCPError(ErrorCodeLLMUnavailable, "answer generation requires an LLM API key", map[string]interface{}{
			"reason": "GROQ_API_KEY or OPENAI_API_KEY not configured",
		})
	}

	result, err := s.planner.Answer(ctx, question)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "answer generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"answer":      result.Answer,
		"agent_used":  result.AgentUsed,
		"query_type":  result.QueryType,
		"sub_queries": result.SubQueries,
		"sources":     result.Sources,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAgent handles the agent tool invocation
func (s *Server) handleAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	if s.agent == nil {
		return nil, newMCPError(ErrorCodeLLMUnavailable, "the agent requires an LLM API key", map[string]interface{}{
			"reason": "GROQ_API_KEY or OPENAI_API_KEY not configured",
		})
	}

	result := s.agent.Execute(ctx, query)
	response := map[string]interface{}{
		"answer":          result.Answer,
		"agent_type":      result.AgentType,
		"tool_calls_made": result.ToolCallsMade,
	}
	if result.Err != "" {
		response["error"] = result.Err
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// renderSearch runs a retrieval and shapes the results for tool output. The
// agent's search_knowledge tool shares this rendering.
func (s *Server) renderSearch(ctx context.Context, query string, topK int) map[string]interface{} {
	results := s.searcher.Search(ctx, query, topK)

	rendered := make([]map[string]interface{}, len(results))
	for i, r := range results {
		item := map[string]interface{}{
			"source":       r.Source,
			"text":         r.Text,
			"hybrid_score": r.HybridScore,
		}
		if r.RerankScore != 0 {
			item["rerank_score"] = r.RerankScore
		}
		rendered[i] = item
	}

	return map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": rendered,
	}
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// stringSlice coerces a JSON array parameter (or a JSON-encoded string form
// of one) into a []string.
func stringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is not a string", i)
			}
			out[i] = s
		}
		return out, nil
	case string:
		// Some clients send the array as an encoded JSON string.
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("not a JSON array of strings: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
