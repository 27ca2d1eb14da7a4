package planner

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/raglab/rag-mcp/internal/compressor"
	"github.com/raglab/rag-mcp/internal/llm"
	"github.com/raglab/rag-mcp/internal/router"
	"github.com/raglab/rag-mcp/pkg/types"
)

// Query type labels reported in Result.QueryType.
const (
	QueryTypeSimple  = "simple"
	QueryTypeComplex = "complex"
)

// agentMultiPlanner is the AgentUsed label for answers assembled from
// multiple sub-queries.
const agentMultiPlanner = "multi_agent_planner"

var (
	comparativeSplit = regexp.MustCompile(`(?i)\bcompare\b|\bversus\b|\bvs\b|difference between`)
	multiPartSplit   = regexp.MustCompile(`(?i)\band\b|\balso\b|\badditionally\b`)
	proceduralMark   = regexp.MustCompile(`(?i)how to|steps to|guide for`)
)

// Retriever is the retrieval capability the planner executes against.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) []types.ScoredChunk
}

// SubAnswer is one sub-query's resolution within a complex answer.
type SubAnswer struct {
	SubQuery string              `json:"sub_query"`
	Answer   string              `json:"answer"`
	Agent    string              `json:"agent"`
	Sources  []types.ScoredChunk `json:"sources"`
}

// Result is a fully resolved answer with its provenance.
type Result struct {
	Answer     string              `json:"answer"`
	AgentUsed  string              `json:"agent_used"`
	QueryType  string              `json:"query_type"`
	Sources    []types.ScoredChunk `json:"sources"`
	SubQueries int                 `json:"sub_queries"`
	SubAnswers []SubAnswer         `json:"sub_answers,omitempty"`
}

// Planner decomposes queries, routes them to agent configurations, and runs
// the retrieve-compress-generate chain for each part. Comparative and
// multi-part queries fan out into sub-queries whose answers are synthesized
// into one; everything else runs the simple single-agent path.
type Planner struct {
	router     *router.Router
	retriever  Retriever
	compressor *compressor.Compressor
	client     *llm.Client
	topK       int
}

// New creates a Planner. topK is the per-query retrieval depth.
func New(rt *router.Router, retriever Retriever, comp *compressor.Compressor, client *llm.Client, topK int) *Planner {
	if topK <= 0 {
		topK = 5
	}
	return &Planner{
		router:     rt,
		retriever:  retriever,
		compressor: comp,
		client:     client,
		topK:       topK,
	}
}

// Answer plans and executes a query. A decomposition or complex-path failure
// degrades to the simple path rather than surfacing an error; only a failure
// of the simple path itself is returned.
func (p *Planner) Answer(ctx context.Context, query string) (*Result, error) {
	subQueries := Decompose(query)

	if len(subQueries) <= 1 {
		return p.answerSimple(ctx, query)
	}

	log.Printf("planner: decomposed query into %d sub-queries", len(subQueries))
	result, err := p.answerComplex(ctx, query, subQueries)
	if err != nil {
		log.Printf("planner: complex path failed, retrying as simple query: %v", err)
		return p.answerSimple(ctx, query)
	}
	return result, nil
}

// AnswerStream executes the simple path with a streaming generation stage,
// forwarding each text increment to fn. fn returning false stops forwarding
// without cancelling the upstream request. Complex queries stream their
// synthesized answer the same way.
func (p *Planner) AnswerStream(ctx context.Context, query string, fn func(delta string) bool) error {
	subQueries := Decompose(query)
	if len(subQueries) > 1 {
		// Sub-answers have to be materialized before synthesis, so only the
		// final answer streams.
		result, err := p.Answer(ctx, query)
		if err != nil {
			return err
		}
		fn(result.Answer)
		return nil
	}

	agent := p.router.Route(query)
	cfg := router.Config(agent)

	docs := p.retriever.Search(ctx, query, p.topK)
	context := p.compressor.Compress(ctx, query, chunksOf(docs))

	return p.client.CompleteStream(ctx, cfg.Model, cfg.SystemPrompt,
		answerPrompt(context, query), cfg.Temperature, cfg.MaxTokens, fn)
}

// answerSimple runs route -> retrieve -> compress -> generate for one query.
func (p *Planner) answerSimple(ctx context.Context, query string) (*Result, error) {
	answer, agent, docs, err := p.resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer:     answer,
		AgentUsed:  string(agent),
		QueryType:  QueryTypeSimple,
		Sources:    docs,
		SubQueries: 1,
	}, nil
}

// answerComplex resolves each sub-query independently and synthesizes a
// unified answer. Synthesis failure falls back to concatenating the
// sub-answers.
func (p *Planner) answerComplex(ctx context.Context, query string, subQueries []string) (*Result, error) {
	subAnswers := make([]SubAnswer, 0, len(subQueries))
	allSources := make([]types.ScoredChunk, 0, len(subQueries)*p.topK)

	for i, sub := range subQueries {
		log.Printf("planner: processing sub-query %d/%d: %s", i+1, len(subQueries), sub)

		answer, agent, docs, err := p.resolve(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("sub-query %d failed: %w", i+1, err)
		}

		subAnswers = append(subAnswers, SubAnswer{
			SubQuery: sub,
			Answer:   answer,
			Agent:    string(agent),
			Sources:  docs,
		})
		allSources = append(allSources, docs...)
	}

	final, err := p.synthesize(ctx, query, subAnswers)
	if err != nil {
		log.Printf("planner: synthesis failed, concatenating sub-answers: %v", err)
		final = concatenate(subAnswers)
	}

	return &Result{
		Answer:     final,
		AgentUsed:  agentMultiPlanner,
		QueryType:  QueryTypeComplex,
		Sources:    allSources,
		SubQueries: len(subQueries),
		SubAnswers: subAnswers,
	}, nil
}

// resolve runs the retrieve-compress-generate chain for one query under the
// routed agent configuration.
func (p *Planner) resolve(ctx context.Context, query string) (string, router.AgentType, []types.ScoredChunk, error) {
	agent := p.router.Route(query)
	cfg := router.Config(agent)

	docs := p.retriever.Search(ctx, query, p.topK)
	context := p.compressor.Compress(ctx, query, chunksOf(docs))

	answer, err := p.client.CompleteWithModel(ctx, cfg.Model, cfg.SystemPrompt,
		answerPrompt(context, query), cfg.Temperature, cfg.MaxTokens)
	if err != nil {
		return "", agent, nil, fmt.Errorf("generation failed for %s agent: %w", agent, err)
	}

	return answer, agent, docs, nil
}

// synthesize asks the general QA agent to unify the sub-answers.
func (p *Planner) synthesize(ctx context.Context, query string, subAnswers []SubAnswer) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Query: %s\n\n", query)
	b.WriteString("I have gathered information from multiple specialized agents. " +
		"Please synthesize a coherent, comprehensive answer:\n\n")
	for _, sa := range subAnswers {
		fmt.Fprintf(&b, "Sub-query: %s\nAnswer: %s\n\n", sa.SubQuery, sa.Answer)
	}
	b.WriteString("Provide a unified answer that addresses the original query comprehensively:")

	cfg := router.Config(router.AgentGeneralQA)
	return p.client.CompleteWithModel(ctx, cfg.Model, cfg.SystemPrompt, b.String(), cfg.Temperature, cfg.MaxTokens)
}

// Decompose splits a query into sub-queries. Comparative phrasing splits on
// the comparison keywords; multi-part phrasing splits on the conjunctions,
// each part re-terminated as a question. Procedural ("how to") and plain
// queries stay whole.
func Decompose(query string) []string {
	lower := strings.ToLower(query)

	switch {
	case comparativeSplit.MatchString(lower):
		parts := comparativeSplit.Split(query, -1)
		subs := trimmed(parts, "")
		if len(subs) >= 2 {
			return subs
		}
	case multiPartSplit.MatchString(lower):
		parts := multiPartSplit.Split(query, -1)
		if subs := trimmed(parts, "?"); len(subs) > 1 {
			return subs
		}
	case proceduralMark.MatchString(lower):
		return []string{query}
	}

	return []string{query}
}

func trimmed(parts []string, suffix string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p+suffix)
		}
	}
	return out
}

func concatenate(subAnswers []SubAnswer) string {
	parts := make([]string, len(subAnswers))
	for i, sa := range subAnswers {
		parts[i] = fmt.Sprintf("Regarding '%s': %s", sa.SubQuery, sa.Answer)
	}
	return strings.Join(parts, "\n\n")
}

// answerPrompt is the context-grounded user message for generation.
func answerPrompt(context, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", context, question)
}

func chunksOf(docs []types.ScoredChunk) []types.DocumentChunk {
	chunks := make([]types.DocumentChunk, len(docs))
	for i, d := range docs {
		chunks[i] = d.DocumentChunk
	}
	return chunks
}
