package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/raglab/rag-mcp/internal/embedder"
	"github.com/raglab/rag-mcp/internal/lexical"
	"github.com/raglab/rag-mcp/internal/reranker"
	"github.com/raglab/rag-mcp/internal/vectorstore"
	"github.com/raglab/rag-mcp/pkg/types"
)

const (
	// DefaultAlpha weights lexical vs semantic scores during fusion.
	DefaultAlpha = 0.5

	// PoolMultiplier and MinCandidatePool size the over-fetched candidate
	// pool handed to the reranker: max(topK*PoolMultiplier, MinCandidatePool).
	PoolMultiplier   = 3
	MinCandidatePool = 15

	queryCacheSize = 1000
	queryCacheTTL  = time.Hour
)

// Option configures a Searcher.
type Option func(*Searcher)

// WithAlpha sets the lexical weight used in score fusion. Values outside
// [0, 1] are ignored.
func WithAlpha(alpha float64) Option {
	return func(s *Searcher) {
		if alpha >= 0 && alpha <= 1 {
			s.alpha = alpha
		}
	}
}

// cacheEntry is a cached result set with an expiry.
type cacheEntry struct {
	results   []types.ScoredChunk
	expiresAt time.Time
}

// Searcher is the hybrid search engine: it fans out to lexical and semantic
// retrieval, fuses the two score sets into one ranking, and reranks the
// resolved candidate pool. All state beyond the BM25 index and the query
// cache is query-scoped.
type Searcher struct {
	store    *vectorstore.Store
	embedder embedder.Embedder
	reranker *reranker.Reranker
	alpha    float64

	mu   sync.RWMutex // guards bm25 across Refresh and reads
	bm25 *lexical.Index

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// New creates a Searcher. The BM25 index is built from whatever metadata the
// store holds right now; later ingestions are invisible to the lexical side
// until Refresh is called.
func New(store *vectorstore.Store, emb embedder.Embedder, rr *reranker.Reranker, opts ...Option) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}

	s := &Searcher{
		store:    store,
		embedder: emb,
		reranker: rr,
		alpha:    DefaultAlpha,
		bm25:     buildLexicalIndex(store),
		cache:    cache,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Refresh rebuilds the BM25 index from the store's current metadata and
// drops all cached query results. Call after ingestion to close the lexical
// staleness window.
func (s *Searcher) Refresh() {
	idx := buildLexicalIndex(s.store)

	s.mu.Lock()
	s.bm25 = idx
	s.mu.Unlock()

	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// Search retrieves the topK most relevant chunks for the query. Retrieval is
// best-effort and never returns an error to the caller: a failed sub-search
// contributes an empty result set, a full hybrid failure falls back to
// semantic-only retrieval, and if that also fails the result is empty.
func (s *Searcher) Search(ctx context.Context, query string, topK int) []types.ScoredChunk {
	if topK <= 0 || query == "" {
		return []types.ScoredChunk{}
	}

	if cached, ok := s.checkCache(query, topK); ok {
		return cached
	}

	results, err := s.hybridSearch(ctx, query, topK)
	if err != nil {
		log.Printf("searcher: hybrid search failed, falling back to semantic only: %v", err)
		results, err = s.semanticOnly(ctx, query, topK)
		if err != nil {
			log.Printf("searcher: fallback search also failed: %v", err)
			return []types.ScoredChunk{}
		}
	}

	if len(results) > 0 {
		s.storeInCache(query, topK, results)
	}

	return results
}

// scoredIndex is a transient (chunk ordinal, raw score) pair produced by a
// sub-search branch.
type scoredIndex struct {
	index int
	score float64
}

// hybridSearch runs steps 1-5 of the retrieval pipeline: over-fetch, fan
// out, fuse, resolve, rerank.
func (s *Searcher) hybridSearch(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error) {
	pool := topK * PoolMultiplier
	if pool < MinCandidatePool {
		pool = MinCandidatePool
	}

	var (
		lexResults []scoredIndex
		semResults []scoredIndex
		semErr     error
	)

	// Both branches always return nil: a failed branch logs and contributes
	// an empty set so fusion proceeds with whatever the other side found.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lexResults = s.lexicalSearch(query, pool)
		return nil
	})
	g.Go(func() error {
		semResults, semErr = s.semanticSearch(gctx, query, pool)
		if semErr != nil {
			log.Printf("searcher: semantic branch failed: %v", semErr)
			semResults = nil
		}
		return nil
	})
	_ = g.Wait()

	if len(lexResults) == 0 && semErr != nil {
		// Nothing usable came back from either side.
		return nil, fmt.Errorf("both search branches failed: %w", semErr)
	}

	fused := fuseScores(lexResults, semResults, s.alpha)

	if len(fused) > pool {
		fused = fused[:pool]
	}

	candidates := make([]types.ScoredChunk, 0, len(fused))
	for _, f := range fused {
		chunk, ok := s.store.Chunk(f.index)
		if !ok {
			// Ordinal beyond the current metadata length: index/metadata
			// skew, skip.
			continue
		}
		candidates = append(candidates, types.ScoredChunk{
			DocumentChunk: chunk,
			HybridScore:   f.score,
		})
	}

	return s.reranker.Rerank(ctx, query, candidates, topK), nil
}

// lexicalSearch scores the query against the BM25 index.
func (s *Searcher) lexicalSearch(query string, topK int) []scoredIndex {
	s.mu.RLock()
	idx := s.bm25
	s.mu.RUnlock()

	if idx == nil || idx.Len() == 0 {
		return nil
	}

	scored := idx.Score(query, topK)
	results := make([]scoredIndex, len(scored))
	for i, sc := range scored {
		results[i] = scoredIndex{index: sc.Index, score: sc.Score}
	}
	return results
}

// semanticSearch embeds the query and scores nearest neighbors. The flat
// index exposes true distances, so similarity is 1/(1+distance) rather than
// a synthetic rank-based score.
func (s *Searcher) semanticSearch(ctx context.Context, query string, topK int) ([]scoredIndex, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.store.Search(queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]scoredIndex, len(hits))
	for i, h := range hits {
		results[i] = scoredIndex{
			index: h.Index,
			score: 1.0 / (1.0 + float64(h.Distance)),
		}
	}
	return results, nil
}

// semanticOnly is the degraded retrieval path used when hybrid search fails
// outright.
func (s *Searcher) semanticOnly(ctx context.Context, query string, topK int) ([]types.ScoredChunk, error) {
	hits, err := s.semanticSearch(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]types.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		chunk, ok := s.store.Chunk(h.index)
		if !ok {
			continue
		}
		results = append(results, types.ScoredChunk{
			DocumentChunk: chunk,
			HybridScore:   clamp01(h.score),
		})
	}
	return results, nil
}

// fuseScores min-max normalizes each score set independently, then combines
// them with a weighted sum over the union of candidates: a chunk present in
// only one set receives 0 for the missing side. The result is a full ranking
// descending by fused score, ties broken by ordinal.
func fuseScores(lexResults, semResults []scoredIndex, alpha float64) []scoredIndex {
	lexScores := normalize(lexResults)
	semScores := normalize(semResults)

	union := make(map[int]struct{}, len(lexScores)+len(semScores))
	for idx := range lexScores {
		union[idx] = struct{}{}
	}
	for idx := range semScores {
		union[idx] = struct{}{}
	}

	fused := make([]scoredIndex, 0, len(union))
	for idx := range union {
		fused = append(fused, scoredIndex{
			index: idx,
			score: alpha*lexScores[idx] + (1-alpha)*semScores[idx],
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].index < fused[j].index
	})

	return fused
}

// normalize min-max scales a score set to [0, 1]. A single score or an
// all-equal set uses a range of 1 to avoid division by zero.
func normalize(results []scoredIndex) map[int]float64 {
	out := make(map[int]float64, len(results))
	if len(results) == 0 {
		return out
	}

	minScore, maxScore := results[0].score, results[0].score
	for _, r := range results[1:] {
		if r.score < minScore {
			minScore = r.score
		}
		if r.score > maxScore {
			maxScore = r.score
		}
	}

	span := maxScore - minScore
	if span == 0 {
		span = 1
	}

	for _, r := range results {
		out[r.index] = (r.score - minScore) / span
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildLexicalIndex derives a BM25 index from the store's current metadata.
func buildLexicalIndex(store *vectorstore.Store) *lexical.Index {
	metadata := store.Metadata()
	texts := make([]string, len(metadata))
	for i, m := range metadata {
		texts[i] = m.Text
	}
	idx := lexical.New(texts)
	if idx.Len() > 0 {
		log.Printf("searcher: initialized BM25 index with %d documents", idx.Len())
	}
	return idx
}

// checkCache returns a copy of a live cached result set.
func (s *Searcher) checkCache(query string, topK int) ([]types.ScoredChunk, bool) {
	key := cacheKey(query, topK)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil, false
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil, false
	}
	results := make([]types.ScoredChunk, len(entry.results))
	copy(results, entry.results)
	s.cacheMu.RUnlock()

	return results, true
}

// storeInCache saves a result set copy with the standard TTL.
func (s *Searcher) storeInCache(query string, topK int, results []types.ScoredChunk) {
	stored := make([]types.ScoredChunk, len(results))
	copy(stored, results)

	s.cacheMu.Lock()
	s.cache.Add(cacheKey(query, topK), &cacheEntry{
		results:   stored,
		expiresAt: time.Now().Add(queryCacheTTL),
	})
	s.cacheMu.Unlock()
}

func cacheKey(query string, topK int) [32]byte {
	return sha256.Sum256(fmt.Appendf(nil, "%s|%d", query, topK))
}
