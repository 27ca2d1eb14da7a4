package lexical

import (
	"math"
	"sort"
	"strings"
)

// Okapi BM25 parameters, standard literature values.
const (
	k1 = 1.5
	b  = 0.75
)

// Scored is a (chunk ordinal, BM25 score) pair.
type Scored struct {
	Index int
	Score float64
}

// Index is an in-memory BM25 index over chunk texts. It is derived state:
// rebuildable at any time from the vector store's metadata and never
// persisted. Tokenization is lowercase whitespace splitting with no stemming
// and no stop-word removal, applied identically to documents and queries.
type Index struct {
	docs      []map[string]int // term frequency per document
	docLens   []int
	docFreq   map[string]int // documents containing each term
	avgDocLen float64
}

// New builds an index over the given document texts. Document ordinals match
// slice positions.
func New(docs []string) *Index {
	idx := &Index{
		docs:    make([]map[string]int, len(docs)),
		docLens: make([]int, len(docs)),
		docFreq: make(map[string]int),
	}

	totalLen := 0
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		idx.docs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		for term := range tf {
			idx.docFreq[term]++
		}
	}

	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}

	return idx
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Score tokenizes the query and returns the topK highest-scoring document
// ordinals with score > 0, descending by score. Ties keep construction
// order. An empty index or a query with no tokens returns empty.
func (idx *Index) Score(query string, topK int) []Scored {
	if len(idx.docs) == 0 || topK <= 0 {
		return []Scored{}
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []Scored{}
	}

	n := float64(len(idx.docs))
	results := make([]Scored, 0, len(idx.docs))

	for i, tf := range idx.docs {
		var score float64
		for _, term := range tokens {
			f, ok := tf[term]
			if !ok {
				continue
			}

			df := float64(idx.docFreq[term])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))

			freq := float64(f)
			norm := freq * (k1 + 1) /
				(freq + k1*(1-b+b*float64(idx.docLens[i])/idx.avgDocLen))

			score += idf * norm
		}

		if score > 0 {
			results = append(results, Scored{Index: i, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}

	return results
}

// Tokenize lowercases and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
