// Package mcp implements the Model Context Protocol (MCP) server for the RAG
// pipeline.
//
// The server exposes five tools over stdio:
//   - health: System status plus index and data directory statistics
//   - ingest: Chunk, embed, and index a batch of documents
//   - search: Hybrid lexical + semantic retrieval over the knowledge base
//   - answer: Retrieval-augmented question answering
//   - agent: Tool-calling agent that drives the other operations itself
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// stdout is reserved for the protocol; all logging goes to stderr.
//
// # Tool: ingest
//
//	Request:
//	{
//	  "name": "ingest",
//	  "arguments": {
//	    "documents": ["first document text", "second document text"]
//	  }
//	}
//
//	Response:
//	{
//	  "documents": 2,
//	  "chunks": 7,
//	  "duration_ms": 142
//	}
//
// # Tool: search
//
//	Request:
//	{
//	  "name": "search",
//	  "arguments": {
//	    "query": "how does score fusion work",
//	    "top_k": 5
//	  }
//	}
//
//	Response:
//	{
//	  "query": "how does score fusion work",
//	  "count": 5,
//	  "results": [
//	    {
//	      "source": "doc_0",
//	      "text": "...",
//	      "hybrid_score": 0.87,
//	      "rerank_score": 0.91
//	    }
//	  ]
//	}
//
// # Tool: answer
//
//	Request:
//	{
//	  "name": "answer",
//	  "arguments": {
//	    "question": "What is the retention policy?"
//	  }
//	}
//
//	Response:
//	{
//	  "answer": "...",
//	  "agent_used": "general_qa",
//	  "query_type": "simple",
//	  "sub_queries": 1,
//	  "sources": [...]
//	}
//
// # Error Handling
//
// Errors follow standard JSON-RPC shapes:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "query",
//	      "reason": "missing or empty"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (ingestion, generation)
//   - -32001: Empty query or question
//   - -32002: Empty document batch
//   - -32003: Generation requested without LLM credentials
//
// # Degraded Operation
//
// Without an LLM API key the server still serves health, ingest, and search;
// answer and agent report code -32003. Retrieval itself never errors: a
// failed sub-search degrades to semantic-only results or an empty set.
package mcp
