// Package embedder provides text embedding generation with caching and
// retry support.
//
// Two providers implement the Embedder interface: an OpenAI-compatible API
// client and a deterministic local provider that needs no credentials.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vector, err := emb.Embed(ctx, "how does ingestion work")
//	vectors, err := emb.EmbedBatch(ctx, texts)
//
// The factory selects a provider from the config: an explicit Provider name
// wins, otherwise an API key selects the OpenAI provider and its absence
// selects the local one. This keeps the whole retrieval pipeline usable
// without network access or credentials.
//
// # Providers
//
// OpenAIProvider calls an OpenAI-compatible embeddings endpoint
// (text-embedding-3-small by default, 1536 dimensions). Batches are capped
// at 100 inputs per call and transient failures are retried with
// exponential backoff.
//
// LocalProvider derives a 384-dimension vector from repeated SHA-256
// digests of the input text. The vectors are deterministic and distinct per
// input but carry no semantic signal; they exist so that indexing, search
// plumbing, and tests work offline. Components that need meaningful
// nearest-neighbor behavior should run with the API provider.
//
// # Caching
//
// Cache is an LRU keyed by ComputeHash (SHA-256 of the text). Get returns a
// copy so callers cannot mutate cached vectors. Both providers consult the
// cache before embedding and populate it after.
package embedder
