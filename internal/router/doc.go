// Package router classifies queries into agent types and maps each type to
// a generation configuration.
//
// Routing is a fixed, ordered list of keyword rules (general, technical,
// creative, code, then math) where the first matching rule wins and an
// unmatched query defaults to general QA. The order is part of the
// contract: "how do I debug this" routes to general (question phrasing)
// even though it contains a code keyword.
//
//	agentType := router.New().Route(query)
//	cfg := router.Config(agentType)
//
// Config returns the model, temperature, token budget, and system prompt
// for an agent type. Specialized agents use the larger model with
// type-appropriate temperatures (0.0 for math up to 0.8 for creative).
package router
