// Package ingestor coordinates the chunk -> embed -> store pipeline for new
// documents.
//
//	ing := ingestor.New(chunker, embedder, store, searcher)
//	stats, err := ing.Ingest(ctx, documents)
//
// Chunks are embedded in batches of 32 with bounded concurrency (one worker
// per CPU); each batch writes into its own slice region so vector ordinals
// always match chunk ordinals regardless of completion order. After a
// successful store append the searcher is refreshed, rebuilding the lexical
// index and purging the query cache so the new documents are immediately
// searchable.
//
// Ingest is serialized with a mutex: concurrent calls queue rather than
// interleave their store appends. Any embedding failure aborts the whole
// ingest before the store is touched.
package ingestor
