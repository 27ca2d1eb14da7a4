package compressor

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/raglab/rag-mcp/pkg/types"
)

const (
	// DefaultMaxContextLength bounds the context handed to generation.
	DefaultMaxContextLength = 4000

	// sentencesPerDocument is how many top-scoring sentences the extractive
	// pass keeps per document.
	sentencesPerDocument = 3

	// minCompressedLength is the floor below which an extractively
	// compressed document carries too little signal to keep.
	minCompressedLength = 100

	summaryTemperature = 0.2
	summaryMaxTokens   = 1000
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Generator is the generation capability used for the abstractive fallback.
type Generator interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// Compressor shapes a ranked document set into a single context string
// bounded by maxContextLength. Compression is linear with no backtracking:
// no-compression-needed, then extractive, then abstractive, each stage
// falling back to the previous stage's output on failure.
type Compressor struct {
	maxContextLength int
	generator        Generator
}

// New creates a Compressor. generator may be nil, which disables the
// abstractive stage (the extractive result is returned instead).
func New(maxContextLength int, generator Generator) *Compressor {
	if maxContextLength <= 0 {
		maxContextLength = DefaultMaxContextLength
	}
	return &Compressor{
		maxContextLength: maxContextLength,
		generator:        generator,
	}
}

// Compress produces the bounded context string for a query over a ranked
// document set. Empty input yields an empty string; a document set already
// within budget is returned formatted but otherwise untouched.
func (c *Compressor) Compress(ctx context.Context, query string, documents []types.DocumentChunk) string {
	if len(documents) == 0 {
		return ""
	}

	totalLength := 0
	for _, doc := range documents {
		totalLength += len(doc.Text)
	}

	formatted := FormatDocuments(documents)
	if totalLength <= c.maxContextLength {
		return formatted
	}

	log.Printf("compressor: context %d chars over %d budget, compressing", totalLength, c.maxContextLength)

	compressed := c.extractive(query, documents)
	compressedText := FormatDocuments(compressed)

	if len(compressedText) <= c.maxContextLength {
		return compressedText
	}

	summary, err := c.abstractive(ctx, query, formatted)
	if err != nil {
		log.Printf("compressor: abstractive compression failed, using extractive result: %v", err)
		return compressedText
	}
	return summary
}

// extractive keeps each document's top sentences by query-word overlap,
// dropping documents whose residual text is too short to be useful.
func (c *Compressor) extractive(query string, documents []types.DocumentChunk) []types.DocumentChunk {
	queryWords := wordSet(query)

	compressed := make([]types.DocumentChunk, 0, len(documents))
	for _, doc := range documents {
		if doc.Text == "" {
			continue
		}

		sentences := SplitSentences(doc.Text)

		type scored struct {
			sentence string
			score    int
		}
		scoredSentences := make([]scored, len(sentences))
		for i, sentence := range sentences {
			scoredSentences[i] = scored{
				sentence: sentence,
				score:    overlap(queryWords, wordSet(sentence)),
			}
		}

		// Stable sort keeps original order among equally scored sentences.
		sort.SliceStable(scoredSentences, func(i, j int) bool {
			return scoredSentences[i].score > scoredSentences[j].score
		})

		keep := scoredSentences
		if len(keep) > sentencesPerDocument {
			keep = keep[:sentencesPerDocument]
		}

		parts := make([]string, len(keep))
		for i, s := range keep {
			parts[i] = s.sentence
		}
		text := strings.Join(parts, " ")

		if len(text) < minCompressedLength {
			continue
		}

		compressed = append(compressed, types.DocumentChunk{
			Source: doc.Source,
			Text:   text,
		})
	}

	return compressed
}

// abstractive asks the generation capability for a query-focused summary of
// the full formatted context. The output is not hard-truncated here; the
// token budget bounds it.
func (c *Compressor) abstractive(ctx context.Context, query, formatted string) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	prompt := fmt.Sprintf(`Given the query: %q

Summarize the following context in a concise way that answers the query.
Keep only the most relevant information. Be brief but comprehensive.

Context:
%s

Summary:`, query, formatted)

	summary, err := c.generator.Complete(ctx, "", prompt, summaryTemperature, summaryMaxTokens)
	if err != nil {
		return "", err
	}

	log.Printf("compressor: abstractive compression %d -> %d chars", len(formatted), len(summary))
	return summary, nil
}

// FormatDocuments renders documents as "Source: {source}\n{text}" blocks
// joined by blank lines.
func FormatDocuments(documents []types.DocumentChunk) string {
	parts := make([]string, len(documents))
	for i, doc := range documents {
		parts[i] = fmt.Sprintf("Source: %s\n%s", doc.Source, doc.Text)
	}
	return strings.Join(parts, "\n\n")
}

// SplitSentences splits text on runs of sentence terminators, trimming
// whitespace and dropping empties.
func SplitSentences(text string) []string {
	raw := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// wordSet lowercases and splits text into a set of whole words.
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// overlap counts the intersection of two word sets.
func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
