package chunker

import (
	"fmt"
	"strings"

	"github.com/raglab/rag-mcp/pkg/types"
)

// Chunker splits raw document text into fixed-size word windows.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker producing windows of size words with overlap words
// shared between consecutive windows. An overlap >= size is clamped to
// size-1 so the window start always advances.
func New(size, overlap int) *Chunker {
	if overlap < 0 {
		overlap = 0
	}
	if size > 0 && overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split windows a single document's text. The last window may be shorter.
// Returns nil for empty text or a non-positive window size.
func (c *Chunker) Split(text string) []string {
	if c.size <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, 1+len(words)/(c.size-c.overlap))
	for start := 0; start < len(words); start += c.size - c.overlap {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}

// ChunkDocuments windows every document and labels each chunk with a
// positional source id ("doc_0", "doc_1", ...). The returned texts and
// metadata are parallel slices, ready for embedding and store insertion.
func (c *Chunker) ChunkDocuments(documents []string) ([]string, []types.DocumentChunk) {
	var texts []string
	var metas []types.DocumentChunk

	for i, doc := range documents {
		source := fmt.Sprintf("doc_%d", i)
		for _, chunk := range c.Split(doc) {
			texts = append(texts, chunk)
			metas = append(metas, types.DocumentChunk{Source: source, Text: chunk})
		}
	}

	return texts, metas
}
