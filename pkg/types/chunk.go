package types

// DocumentChunk is the atomic unit of indexed content: a bounded span of a
// source document produced by the word-window split.
type DocumentChunk struct {
	// Source identifies the originating document (e.g. "doc_0"). Not unique
	// across chunks of the same document.
	Source string `json:"source"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// Validate checks that the chunk carries indexable content.
func (c *DocumentChunk) Validate() error {
	if c.Text == "" {
		return ErrEmptyText
	}
	return nil
}
