package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// healthTool returns the tool definition for health
func healthTool() mcp.Tool {
	return mcp.Tool{
		Name:        "health",
		Description: "Check the health status of the RAG system",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// ingestTool returns the tool definition for ingest
func ingestTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest",
		Description: "Ingest documents into the knowledge base",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"documents": map[string]interface{}{
					"type":        "array",
					"description": "Documents to ingest, each a plain text string",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"documents"},
		},
	}
}

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search",
		Description: "Search the knowledge base with hybrid lexical and semantic retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// answerTool returns the tool definition for answer
func answerTool() mcp.Tool {
	return mcp.Tool{
		Name:        "answer",
		Description: "Answer a question using retrieval-augmented generation",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer from the knowledge base",
				},
			},
			Required: []string{"question"},
		},
	}
}

// agentTool returns the tool definition for agent
func agentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "agent",
		Description: "Resolve a request with the tool-calling agent, which can inspect, ingest, search, and answer on its own",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Request for the agent to resolve",
				},
			},
			Required: []string{"query"},
		},
	}
}
