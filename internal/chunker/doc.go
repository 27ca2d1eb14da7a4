// Package chunker splits raw documents into overlapping word windows for
// embedding and indexing.
//
// # Basic Usage
//
//	c := chunker.New(200, 50)
//	texts, metas := c.ChunkDocuments(documents)
//
// Each chunk carries a synthetic source label ("doc_0", "doc_1", ...) naming
// the document it came from; chunk ordinals are assigned in document order so
// they line up with the vectors produced from the same slice.
//
// # Windowing
//
// Split walks the document's whitespace-separated words with a window of
// `size` words advancing by `size - overlap` each step. The final window may
// be shorter than `size`; a document shorter than one window yields a single
// chunk. Degenerate parameters are clamped at construction: a negative
// overlap becomes 0, and an overlap >= size becomes size-1 so the window
// always advances.
package chunker
