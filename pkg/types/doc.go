// Package types provides shared type definitions for the RAG MCP server.
//
// DocumentChunk is the unit of indexed content. Its identity is its ordinal
// position in the vector store's metadata sequence; that ordinal is the join
// key between the vector index and the lexical index and must stay in
// lock-step across both.
//
// ScoredChunk wraps a chunk with query-scoped relevance annotations produced
// by the hybrid search engine:
//
//	result := types.ScoredChunk{
//	    DocumentChunk: types.DocumentChunk{Source: "doc_0", Text: "..."},
//	    HybridScore:   0.82,
//	}
//
// Hybrid scores are normalized to [0, 1]; higher is more relevant.
package types
