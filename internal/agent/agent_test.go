package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglab/rag-mcp/internal/chunker"
	"github.com/raglab/rag-mcp/internal/compressor"
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

// capturedRequest is the subset of the chat completion request the tests
// inspect.
type capturedRequest struct {
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	} `json:"messages"`
	Tools []json.RawMessage `json:"tools"`
}

func completionJSON(content string) string {
	data, _ := json.Marshal(map[string]any{
		"id":     "1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	})
	return string(data)
}

func toolCallJSON(id, name, arguments string) string {
	data, _ := json.Marshal(map[string]any{
		"id":     "1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{
						{
							"id":   id,
							"type": "function",
							"function": map[string]any{
								"name":      name,
								"arguments": arguments,
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	})
	return string(data)
}

// newTestAgent builds an agent over a real retrieval stack and a scripted
// completion endpoint.
func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)

	store, err := vectorstore.New(t.TempDir(), embedder.LocalDimension)
	require.NoError(t, err)

	srch := searcher.New(store, emb, reranker.New(nil))
	ing := ingestor.New(chunker.New(50, 10), emb, store, srch)
	st := stats.New(t.TempDir(), t.TempDir(), t.TempDir())

	client, err := llm.New("test-key", ts.URL+"/v1", "")
	require.NoError(t, err)

	pl := planner.New(router.New(), srch, compressor.New(4000, client), client, 3)

	search := func(ctx context.Context, query string, topK int) any {
		results := srch.Search(ctx, query, topK)
		return map[string]any{"query": query, "count": len(results)}
	}

	return New(client, pl, ing, st, search, 3)
}

func TestExecute_DirectAnswer(t *testing.T) {
	requests := 0
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("no tools needed"))
	})

	result := a.Execute(context.Background(), "hello")
	assert.Equal(t, "no tools needed", result.Answer)
	assert.Equal(t, 0, result.ToolCallsMade)
	assert.Equal(t, typeToolCalling, result.AgentType)
	assert.Empty(t, result.Err)
	assert.Equal(t, 1, requests)
}

func TestExecute_ToolCallRoundTrip(t *testing.T) {
	var second capturedRequest
	requests := 0
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		switch requests {
		case 1:
			fmt.Fprint(w, toolCallJSON("call_1", "search_knowledge", `{"query":"alpha"}`))
		default:
			_ = json.NewDecoder(r.Body).Decode(&second)
			fmt.Fprint(w, completionJSON("found it"))
		}
	})

	result := a.Execute(context.Background(), "look up alpha")
	assert.Equal(t, "found it", result.Answer)
	assert.Equal(t, 1, result.ToolCallsMade)
	assert.Equal(t, typeToolCalling, result.AgentType)
	assert.Equal(t, 2, requests)

	// The second request must carry the tool result back to the model.
	require.NotEmpty(t, second.Messages)
	var toolMsg *struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	}
	for i := range second.Messages {
		if second.Messages[i].Role == openai.ChatMessageRoleTool {
			toolMsg = &second.Messages[i]
		}
	}
	require.NotNil(t, toolMsg, "expected a tool role message")
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, `"query":"alpha"`)
	assert.NotEmpty(t, second.Tools)
}

func TestExecute_IngestThroughTool(t *testing.T) {
	requests := 0
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		if requests == 1 {
			fmt.Fprint(w, toolCallJSON("call_1", "ingest_documents",
				`{"documents":["the sky is blue on clear days"]}`))
			return
		}
		fmt.Fprint(w, completionJSON("ingested"))
	})

	result := a.Execute(context.Background(), "add this fact")
	assert.Equal(t, "ingested", result.Answer)
	assert.Equal(t, 1, result.ToolCallsMade)
}

func TestExecute_MaxIterations(t *testing.T) {
	requests := 0
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, toolCallJSON(fmt.Sprintf("call_%d", requests), "health_check", `{}`))
	})

	result := a.Execute(context.Background(), "loop forever")
	assert.Equal(t, typeMaxIterations, result.AgentType)
	assert.Equal(t, MaxIterations, result.ToolCallsMade)
	assert.Contains(t, result.Answer, "unable to complete")
	assert.Equal(t, MaxIterations, requests)
}

func TestExecute_FallbackToPlainRAG(t *testing.T) {
	// Tool-calling requests fail; the plain completion the planner issues
	// (no tools field) succeeds.
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Tools) > 0 {
			http.Error(w, `{"error":{"message":"tools unsupported"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("plain rag answer"))
	})

	result := a.Execute(context.Background(), "what is this")
	assert.Equal(t, "plain rag answer", result.Answer)
	assert.Equal(t, typeFallbackRAG, result.AgentType)
	assert.NotEmpty(t, result.Err)
}

func TestExecute_FallbackAlsoFails(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusInternalServerError)
	})

	result := a.Execute(context.Background(), "what is this")
	assert.Equal(t, "Error occurred", result.Answer)
	assert.Equal(t, typeFallbackRAG, result.AgentType)
	assert.NotEmpty(t, result.Err)
}

func TestExecuteToolCalls_UnknownTool(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {})

	msgs := a.executeToolCalls(context.Background(), []openai.ToolCall{
		{ID: "call_1", Function: openai.FunctionCall{Name: "no_such_tool", Arguments: `{}`}},
	})
	require.Len(t, msgs, 1)
	assert.Equal(t, openai.ChatMessageRoleTool, msgs[0].Role)
	assert.Equal(t, "call_1", msgs[0].ToolCallID)
	assert.Contains(t, msgs[0].Content, "Unknown tool")
}

func TestExecuteToolCalls_BadArguments(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {})

	msgs := a.executeToolCalls(context.Background(), []openai.ToolCall{
		{ID: "call_1", Function: openai.FunctionCall{Name: "ingest_documents", Arguments: `not json`}},
	})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "error")
}

func TestDispatch_HealthCheck(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {})

	got, err := a.dispatch["health_check"](context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	payload, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", payload["status"])
}

func TestDispatch_SearchDefaultsTopK(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {})

	got, err := a.dispatch["search_knowledge"](context.Background(), json.RawMessage(`{"query":"anything"}`))
	require.NoError(t, err)
	payload, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "anything", payload["query"])
}

func TestBuildTools_Definitions(t *testing.T) {
	a := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {})

	require.Len(t, a.tools, 4)
	names := make([]string, len(a.tools))
	for i, tl := range a.tools {
		names[i] = tl.Function.Name
		assert.Contains(t, a.dispatch, tl.Function.Name)
	}
	assert.Equal(t, []string{"health_check", "ingest_documents", "search_knowledge", "answer_question"}, names)
}
