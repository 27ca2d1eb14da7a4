// Package lexical provides an in-memory BM25 index over chunk texts.
//
// The index is derived state: it is rebuilt from the vector store's metadata
// whenever the corpus changes and is never persisted. Tokenization is
// lowercase whitespace splitting, matching how queries are tokenized at
// score time.
//
//	idx := lexical.New(texts)
//	hits := idx.Score("error handling", 10)
//
// Score returns only documents with a positive BM25 score, ordered
// descending with ties kept in document order.
package lexical
