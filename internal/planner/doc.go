// Package planner answers questions over the indexed corpus, decomposing
// complex queries into sub-queries and synthesizing their answers.
//
// # Basic Usage
//
//	p := planner.New(router.New(), searcher, compressor, client, topK)
//	result, err := p.Answer(ctx, "compare postgres versus redis")
//
// # Decomposition
//
// Decompose classifies a query by shape:
//
//   - Comparative ("compare X versus Y", "difference between X and Y"):
//     split into one sub-query per compared item.
//   - Multi-part ("what is X and what is Y"): split on conjunctions, each
//     part suffixed with "?".
//   - Procedural ("how to ..."): kept whole, the steps belong together.
//   - Everything else: kept whole.
//
// Conjunction splitting matches whole words only, so "island" does not
// split.
//
// # Answering
//
// A single sub-query is the simple path: route the query to an agent type,
// retrieve and compress context, and complete with that agent's model
// configuration. Multiple sub-queries are answered independently, then a
// synthesis completion combines them; if synthesis fails the sub-answers
// are concatenated instead. Any failure in the complex path degrades to
// the simple path before giving up.
//
// AnswerStream streams the simple path's completion deltas to a callback;
// complex queries are materialized first and forwarded as one delta.
package planner
