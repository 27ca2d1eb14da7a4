// Package searcher implements hybrid retrieval combining BM25 lexical
// scoring with flat-index semantic search.
//
// # Pipeline
//
// For a query and requested result count topK:
//
//  1. Size the candidate pool: max(topK*3, 15). The over-fetch gives the
//     reranker enough signal to be useful.
//  2. Run lexical (BM25) and semantic (nearest-neighbor) search concurrently
//     over the pool size. Each branch yields (chunk ordinal, raw score)
//     pairs; a failed branch is logged and treated as empty.
//  3. Min-max normalize each score set to [0, 1] independently, then fuse
//     with a weighted sum over the union:
//
//     fused = alpha*lexical + (1-alpha)*semantic
//
//     A chunk seen by only one branch gets 0 for the missing side. Default
//     alpha is 0.5.
//  4. Resolve the top fused ordinals to document chunks (ordinals beyond the
//     metadata length are skipped) and attach the fused score.
//  5. Rerank the candidate pool down to topK.
//
// Semantic raw scores are 1/(1+distance) over the flat index's squared-L2
// distances, so nearer neighbors score higher on a calibrated-enough scale
// for fusion.
//
// # Degradation
//
// Search never surfaces an error. If the whole hybrid pipeline fails it
// retries with semantic-only retrieval; if that fails too the result is
// empty. An empty corpus produces empty results at every stage.
//
// # Staleness
//
// The BM25 index is built from the store's metadata at construction time.
// Ingestions after that are invisible to the lexical branch until Refresh
// rebuilds the index (the ingestor calls Refresh after every batch).
//
// # Caching
//
// Results are cached per (query, topK) for one hour in an LRU of 1000
// entries. Refresh purges the cache.
package searcher
