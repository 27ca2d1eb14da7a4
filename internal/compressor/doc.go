// Package compressor reduces retrieved context to fit a character budget
// before it reaches the generation prompt.
//
// # Strategy
//
// Compress tries progressively lossier strategies until the formatted
// context fits maxContextLength:
//
//  1. No compression: if the formatted documents already fit, they are
//     returned verbatim.
//  2. Extractive: each document is reduced to its three sentences with the
//     highest word overlap against the query, in original order. Documents
//     whose extract falls under 100 characters are dropped entirely.
//  3. Abstractive: the full formatted context is summarized by the
//     generator with the query in the prompt, low temperature.
//
// A nil or failing generator stops the chain at the extractive result, so
// compression always returns something usable even when generation is
// unavailable.
//
//	comp := compressor.New(4000, client)
//	context := comp.Compress(ctx, query, chunks)
//
// FormatDocuments and SplitSentences are exported because the planner and
// tests share the same formatting and sentence boundaries.
package compressor
