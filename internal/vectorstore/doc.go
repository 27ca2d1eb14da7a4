// Package vectorstore implements a flat (exhaustive-scan) vector index with
// file-based persistence.
//
// # Basic Usage
//
//	store, err := vectorstore.New(indexDir, emb.Dimension())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = store.Add(vectors, chunks)
//	hits, err := store.Search(queryVector, 5)
//
// # Persistence
//
// The store keeps two co-located artifacts in its directory:
//
//   - vectors.bin: a little-endian binary blob: uint32 dimension, uint64
//     count, then count*dimension float32 values
//   - metadata.json: a JSON array of document chunks, one per vector, in
//     the same order
//
// Add rewrites both files after every successful append; a write failure
// fails the Add. The two writes are not atomic: a crash between them can
// leave the artifacts at different lengths. Search tolerates that skew by
// dropping hits whose ordinal has no metadata entry. A temp-file + rename
// scheme would close the window but is not implemented.
//
// New loads any existing artifacts and adopts the persisted dimension, so a
// caller's dimension argument only matters for a fresh directory.
//
// # Search
//
// Search scans every stored vector with squared L2 distance and returns the
// topK nearest hits, ascending by distance. The scan is exact; there is no
// approximate index structure.
//
// The store performs no internal locking. Callers that mix writers and
// readers serialize access themselves (the ingestor holds a mutex around
// the chunk-embed-add pipeline).
package vectorstore
