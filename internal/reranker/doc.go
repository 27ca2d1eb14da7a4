// Package reranker refines a candidate list with a second-pass relevance
// scorer.
//
// The Reranker never fails a search: a nil scorer, a scorer error, or a
// score/candidate length mismatch all degrade to truncating the candidates
// in their incoming order. When scoring succeeds, results are reordered by
// RerankScore descending while HybridScore is preserved from the first pass.
//
// EmbeddingScorer is the default Scorer: cosine similarity between the query
// embedding and each candidate's embedding, sharing the embedder's cache.
package reranker
