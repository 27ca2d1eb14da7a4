// Package agent implements a tool-calling loop over the retrieval system:
// the model decides which operations to invoke (health, ingest, search,
// answer) and the loop feeds results back until it produces a final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/raglab/rag-mcp/internal/ingestor"
	"github.com/raglab/rag-mcp/internal/llm"
	"github.com/raglab/rag-mcp/internal/planner"
	"github.com/raglab/rag-mcp/internal/stats"
)

const (
	// toolModel is the more capable model used to drive tool selection.
	toolModel = "llama3-70b-8192"

	toolTemperature = 0.1

	// MaxIterations bounds the tool-calling loop.
	MaxIterations = 5
)

// Agent type labels reported in Result.AgentType.
const (
	typeToolCalling   = "tool_calling"
	typeFallbackRAG   = "fallback_rag"
	typeMaxIterations = "tool_calling_max_iterations"
)

const systemPrompt = `You are an intelligent assistant with access to various RAG (Retrieval-Augmented Generation) tools.

You can use the following tools:
- health_check: Check system status
- ingest_documents: Add new documents to the knowledge base
- search_knowledge: Search for information in the knowledge base
- answer_question: Get comprehensive answers using RAG

When responding:
1. Use tools when they would help answer the user's query
2. For complex queries, break them down and use multiple tools
3. Provide clear, helpful answers based on tool results
4. If you have enough information, provide a final answer

Always be helpful and accurate.`

// Result is the outcome of a tool-calling run.
type Result struct {
	Answer        string `json:"answer"`
	ToolCallsMade int    `json:"tool_calls_made"`
	AgentType     string `json:"agent_type"`
	Err           string `json:"error,omitempty"`
}

// toolFunc executes one tool call and returns a JSON-marshalable result.
type toolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Agent drives the tool-calling loop.
type Agent struct {
	client   *llm.Client
	planner  *planner.Planner
	ingestor *ingestor.Ingestor
	stats    *stats.Collector
	search   func(ctx context.Context, query string, topK int) any

	tools    []openai.Tool
	dispatch map[string]toolFunc
	topK     int
}

// New creates an Agent over the system's operations. search renders a search
// result set in whatever shape the caller wants the model to see.
func New(client *llm.Client, pl *planner.Planner, ing *ingestor.Ingestor, st *stats.Collector,
	search func(ctx context.Context, query string, topK int) any, topK int) *Agent {
	a := &Agent{
		client:   client,
		planner:  pl,
		ingestor: ing,
		stats:    st,
		search:   search,
		topK:     topK,
	}
	a.buildTools()
	return a
}

// Execute runs the tool-calling loop for a query. Any API failure during the
// loop falls back to the plain RAG answer path; reaching the iteration cap
// returns an apology rather than an error.
func (a *Agent) Execute(ctx context.Context, query string) *Result {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	for iteration := 0; iteration < MaxIterations; iteration++ {
		log.Printf("agent: tool-calling iteration %d", iteration+1)

		resp, err := a.client.Raw().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       toolModel,
			Messages:    messages,
			Tools:       a.tools,
			Temperature: toolTemperature,
		})
		if err != nil || len(resp.Choices) == 0 {
			if err == nil {
				err = fmt.Errorf("no choices returned")
			}
			log.Printf("agent: iteration %d failed, falling back to plain RAG: %v", iteration+1, err)
			return a.fallback(ctx, query, err)
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			log.Printf("agent: completed with final answer after %d tool iterations", iteration)
			return &Result{
				Answer:        message.Content,
				ToolCallsMade: iteration,
				AgentType:     typeToolCalling,
			}
		}

		messages = append(messages, message)
		messages = append(messages, a.executeToolCalls(ctx, message.ToolCalls)...)
	}

	log.Printf("agent: max iterations reached")
	return &Result{
		Answer:        "I apologize, but I was unable to complete your request within the allowed iterations.",
		ToolCallsMade: MaxIterations,
		AgentType:     typeMaxIterations,
	}
}

// executeToolCalls runs each requested tool and renders the results as tool
// messages. Tool errors are reported back to the model, not surfaced.
func (a *Agent) executeToolCalls(ctx context.Context, calls []openai.ToolCall) []openai.ChatCompletionMessage {
	results := make([]openai.ChatCompletionMessage, 0, len(calls))

	for _, call := range calls {
		log.Printf("agent: executing tool %s with args %s", call.Function.Name, call.Function.Arguments)

		var content string
		if fn, ok := a.dispatch[call.Function.Name]; ok {
			result, err := fn(ctx, json.RawMessage(call.Function.Arguments))
			if err != nil {
				content = errorJSON(err.Error())
			} else if data, merr := json.Marshal(result); merr != nil {
				content = errorJSON(merr.Error())
			} else {
				content = string(data)
			}
		} else {
			content = errorJSON(fmt.Sprintf("Unknown tool: %s", call.Function.Name))
		}

		results = append(results, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    content,
		})
	}

	return results
}

func (a *Agent) fallback(ctx context.Context, query string, cause error) *Result {
	result, err := a.planner.Answer(ctx, query)
	if err != nil {
		return &Result{
			Answer:    "Error occurred",
			AgentType: typeFallbackRAG,
			Err:       cause.Error(),
		}
	}
	return &Result{
		Answer:    result.Answer,
		AgentType: typeFallbackRAG,
		Err:       cause.Error(),
	}
}

func (a *Agent) buildTools() {
	a.dispatch = map[string]toolFunc{
		"health_check": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return map[string]any{"status": "healthy", "stats": a.stats.System()}, nil
		},
		"ingest_documents": func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Documents []string `json:"documents"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			return a.ingestor.Ingest(ctx, params.Documents)
		},
		"search_knowledge": func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Query string `json:"query"`
				TopK  int    `json:"top_k"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			if params.TopK <= 0 {
				params.TopK = a.topK
			}
			return a.search(ctx, params.Query, params.TopK), nil
		},
		"answer_question": func(ctx context.Context, args json.RawMessage) (any, error) {
			var params struct {
				Question string `json:"question"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
			return a.planner.Answer(ctx, params.Question)
		},
	}

	a.tools = []openai.Tool{
		tool("health_check", "Check the health status of the RAG system", nil, nil),
		tool("ingest_documents", "Ingest documents into the vector store",
			map[string]jsonschema.Definition{
				"documents": {
					Type:        jsonschema.Array,
					Description: "List of strings representing documents to ingest",
					Items:       &jsonschema.Definition{Type: jsonschema.String},
				},
			}, []string{"documents"}),
		tool("search_knowledge", "Search the knowledge base for relevant documents",
			map[string]jsonschema.Definition{
				"query": {
					Type:        jsonschema.String,
					Description: "Search query string",
				},
				"top_k": {
					Type:        jsonschema.Integer,
					Description: "Number of results to return (optional, default 5)",
				},
			}, []string{"query"}),
		tool("answer_question", "Answer a question using the RAG system",
			map[string]jsonschema.Definition{
				"question": {
					Type:        jsonschema.String,
					Description: "Question to answer",
				},
			}, []string{"question"}),
	}
}

func tool(name, description string, properties map[string]jsonschema.Definition, required []string) openai.Tool {
	if properties == nil {
		properties = map[string]jsonschema.Definition{}
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: properties,
				Required:   required,
			},
		},
	}
}

func errorJSON(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
