package reranker

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/raglab/rag-mcp/internal/embedder"
	"github.com/raglab/rag-mcp/pkg/types"
)

// Scorer is a pairwise relevance model: it scores each (query, text) pair
// with a scalar where higher means more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Reranker re-orders a candidate set by pairwise relevance and truncates to
// top-k. An unavailable scorer degrades to pass-through: the upstream fused
// ordering is preserved rather than failing the request.
type Reranker struct {
	scorer Scorer
}

// New creates a Reranker. A nil scorer is allowed and yields the degraded
// pass-through mode.
func New(scorer Scorer) *Reranker {
	return &Reranker{scorer: scorer}
}

// Rerank scores each document against the query, sorts descending by score
// and returns the top topK. On an empty input, a missing scorer, or a
// scoring failure it returns the first topK documents unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []types.ScoredChunk, topK int) []types.ScoredChunk {
	if topK < 0 {
		topK = 0
	}

	if r.scorer == nil || len(docs) == 0 {
		return truncate(docs, topK)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	scores, err := r.scorer.Score(ctx, query, texts)
	if err != nil || len(scores) != len(docs) {
		log.Printf("reranker: scoring failed, returning fused order: %v", err)
		return truncate(docs, topK)
	}

	reranked := make([]types.ScoredChunk, len(docs))
	copy(reranked, docs)
	for i := range reranked {
		reranked[i].RerankScore = scores[i]
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].RerankScore > reranked[j].RerankScore
	})

	return truncate(reranked, topK)
}

func truncate(docs []types.ScoredChunk, topK int) []types.ScoredChunk {
	if topK > len(docs) {
		topK = len(docs)
	}
	out := make([]types.ScoredChunk, topK)
	copy(out, docs[:topK])
	return out
}

// EmbeddingScorer scores (query, text) pairs by cosine similarity of their
// embeddings. A cheap stand-in for a cross-encoder: still pairwise at the
// interface, bi-encoder underneath.
type EmbeddingScorer struct {
	embedder embedder.Embedder
}

// NewEmbeddingScorer creates a scorer backed by the given embedder.
func NewEmbeddingScorer(emb embedder.Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: emb}
}

// Score embeds the query and every text, returning cosine similarities.
func (s *EmbeddingScorer) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = cosineSimilarity(queryVec, v)
	}
	return scores, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
