package ingestor

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raglab/rag-mcp/internal/chunker"
	"github.com/raglab/rag-mcp/internal/embedder"
	"github.com/raglab/rag-mcp/internal/searcher"
	"github.com/raglab/rag-mcp/internal/vectorstore"
)

// embedBatchSize is how many chunks each embedding request carries.
const embedBatchSize = 32

// Stats summarizes one ingestion.
type Stats struct {
	Documents int           `json:"documents"`
	Chunks    int           `json:"chunks"`
	Duration  time.Duration `json:"-"`
}

// Ingestor runs the ingestion pipeline: chunk, embed, append to the store,
// refresh the lexical index. Ingest calls are serialized; the store is
// single-writer.
type Ingestor struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    *vectorstore.Store
	searcher *searcher.Searcher
	workers  int

	mu sync.Mutex
}

// New creates an Ingestor.
func New(ch *chunker.Chunker, emb embedder.Embedder, store *vectorstore.Store, s *searcher.Searcher) *Ingestor {
	return &Ingestor{
		chunker:  ch,
		embedder: emb,
		store:    store,
		searcher: s,
		workers:  runtime.NumCPU(),
	}
}

// Ingest chunks and embeds documents, appends them to the store, and
// refreshes the search index. Chunk ordinals in the store follow document
// order: all chunks of document i precede all chunks of document i+1.
func (ing *Ingestor) Ingest(ctx context.Context, documents []string) (*Stats, error) {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	start := time.Now()

	texts, metadatas := ing.chunker.ChunkDocuments(documents)
	if len(texts) == 0 {
		return &Stats{Documents: len(documents), Duration: time.Since(start)}, nil
	}

	vectors, err := ing.embedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	if err := ing.store.Add(vectors, metadatas); err != nil {
		return nil, fmt.Errorf("failed to add vectors to store: %w", err)
	}

	ing.searcher.Refresh()

	stats := &Stats{
		Documents: len(documents),
		Chunks:    len(texts),
		Duration:  time.Since(start),
	}
	log.Printf("ingestor: ingested %d documents (%d chunks) in %s",
		stats.Documents, stats.Chunks, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// embedAll embeds texts in fixed-size batches across a bounded worker pool.
// Each batch writes into its own region of the result slice, so vector
// ordinals stay aligned with the input order regardless of completion order.
func (ing *Ingestor) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workers)

	for offset := 0; offset < len(texts); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			batch, err := ing.embedder.EmbedBatch(gctx, texts[offset:end])
			if err != nil {
				return fmt.Errorf("batch at offset %d: %w", offset, err)
			}
			copy(vectors[offset:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
