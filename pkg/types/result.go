package types

// ScoredChunk is a DocumentChunk annotated with retrieval scores. Scores are
// query-scoped and never persisted.
type ScoredChunk struct {
	DocumentChunk

	// HybridScore is the fused lexical+semantic score in [0, 1].
	HybridScore float64 `json:"hybrid_score"`

	// RerankScore is the second-pass relevance score, if reranking ran.
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// Validate checks the scored chunk's invariants.
func (s *ScoredChunk) Validate() error {
	if err := s.DocumentChunk.Validate(); err != nil {
		return err
	}
	if s.HybridScore < 0 || s.HybridScore > 1 {
		return ErrInvalidScore
	}
	return nil
}
