package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/raglab/rag-mcp/pkg/types"
)

// Persisted artifact names inside the index directory.
const (
	IndexFileName    = "vectors.bin"
	MetadataFileName = "metadata.json"
)

// Store is a flat (brute-force) nearest-neighbor index over embedding
// vectors with a parallel metadata sequence. Flat beats approximate indexes
// at the corpus sizes this system targets: exact recall, zero tuning, at the
// cost of a linear scan per query.
//
// Vectors and metadata are persisted as two co-located artifacts that
// function as one logical record. They are written sequentially, not
// atomically; a crash between the two writes leaves a length skew until the
// next successful Add. Search tolerates the skew by dropping indices beyond
// the metadata length. A temp-file+rename scheme would close the gap but is
// deliberately not implemented here.
//
// Store has no internal locking. Add mutates the in-memory sequences that
// Search reads, so callers must serialize Add against everything else;
// concurrent Search calls are fine.
type Store struct {
	dim       int
	vectors   [][]float32
	metadata  []types.DocumentChunk
	indexPath string
	metaPath  string
}

// Hit is a single nearest-neighbor result.
type Hit struct {
	// Index is the chunk's ordinal in the metadata sequence, the join key
	// shared with the lexical index.
	Index int

	// Distance is the squared Euclidean distance to the query (lower is
	// closer).
	Distance float32

	// Chunk is the resolved metadata record.
	Chunk types.DocumentChunk
}

// New opens the store rooted at dir. If a persisted index exists it is
// loaded and the declared dimensionality is NOT re-validated against the
// loaded blob; a mismatch surfaces later as ErrDimensionMismatch from Add or
// Search. Otherwise an empty index of dimension dim is created.
func New(dir string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}

	s := &Store{
		dim:       dim,
		indexPath: filepath.Join(dir, IndexFileName),
		metaPath:  filepath.Join(dir, MetadataFileName),
	}

	if _, err := os.Stat(s.indexPath); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load persisted index: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat index file: %w", err)
	}

	return s, nil
}

// Add appends vectors and their metadata in order, then persists both
// artifacts. Requires len(vectors) == len(metadatas). A persistence failure
// is fatal to the call: ingestion is not complete until both artifacts are
// on disk.
func (s *Store) Add(vectors [][]float32, metadatas []types.DocumentChunk) error {
	if len(vectors) != len(metadatas) {
		return fmt.Errorf("%w: %d vectors, %d metadata records",
			types.ErrLengthMismatch, len(vectors), len(metadatas))
	}
	if len(vectors) == 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != s.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index has %d",
				types.ErrDimensionMismatch, i, len(v), s.dim)
		}
	}

	s.vectors = append(s.vectors, vectors...)
	s.metadata = append(s.metadata, metadatas...)

	return s.persist()
}

// Search returns up to topK hits ordered by ascending squared-Euclidean
// distance. An empty index returns an empty slice; topK larger than the
// index returns everything. Indices beyond the current metadata length are
// silently dropped, bounding the damage from index/metadata skew.
func (s *Store) Search(query []float32, topK int) ([]Hit, error) {
	if topK < 0 {
		return nil, types.ErrInvalidTopK
	}
	if len(s.vectors) == 0 || topK == 0 {
		return []Hit{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			types.ErrDimensionMismatch, len(query), s.dim)
	}

	hits := make([]Hit, 0, len(s.vectors))
	for i, v := range s.vectors {
		hits = append(hits, Hit{Index: i, Distance: squaredL2(query, v)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}

	results := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Index >= len(s.metadata) {
			continue
		}
		h.Chunk = s.metadata[h.Index]
		results = append(results, h)
	}

	return results, nil
}

// Len returns the number of indexed vectors.
func (s *Store) Len() int {
	return len(s.vectors)
}

// Dimension returns the index dimensionality.
func (s *Store) Dimension() int {
	return s.dim
}

// Metadata returns a copy of the metadata sequence, in insertion order.
func (s *Store) Metadata() []types.DocumentChunk {
	out := make([]types.DocumentChunk, len(s.metadata))
	copy(out, s.metadata)
	return out
}

// Chunk resolves a single ordinal to its metadata record.
func (s *Store) Chunk(index int) (types.DocumentChunk, bool) {
	if index < 0 || index >= len(s.metadata) {
		return types.DocumentChunk{}, false
	}
	return s.metadata[index], true
}

// persist writes the index blob then the metadata array. Both writes must
// succeed for the mutation to be considered durable.
func (s *Store) persist() error {
	if err := writeVectors(s.indexPath, s.dim, s.vectors); err != nil {
		return fmt.Errorf("failed to write vector index: %w", err)
	}

	data, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// load reads both artifacts written by persist.
func (s *Store) load() error {
	dim, vectors, err := readVectors(s.indexPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(s.metaPath)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata []types.DocumentChunk
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	s.dim = dim
	s.vectors = vectors
	s.metadata = metadata
	return nil
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
