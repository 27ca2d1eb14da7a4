package router

import (
	"log"
	"strings"
)

// AgentType categorizes a query for downstream model selection.
type AgentType string

const (
	AgentGeneralQA AgentType = "general_qa"
	AgentTechnical AgentType = "technical"
	AgentCreative  AgentType = "creative"
	AgentCode      AgentType = "code"
	AgentMath      AgentType = "math"
)

// AgentConfig carries the generation parameters for one agent type.
type AgentConfig struct {
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// rule pairs an agent type with its matching predicate. Rules are evaluated
// in declaration order; the first match wins.
type rule struct {
	agent   AgentType
	matches func(query string) bool
}

// Router classifies queries by keyword rules. This is a fixed lookup table,
// not a learned classifier: predicates are evaluated in a fixed priority
// order and the default is AgentGeneralQA.
type Router struct {
	rules []rule
}

// New creates a Router with the standard rule set.
func New() *Router {
	return &Router{
		rules: []rule{
			{AgentGeneralQA, matchesAny(generalKeywords)},
			{AgentTechnical, matchesAny(technicalKeywords)},
			{AgentCreative, matchesAny(creativeKeywords)},
			{AgentCode, matchesAny(codeKeywords)},
			{AgentMath, isMath},
		},
	}
}

// Route returns the agent type for a query. Queries matching no rule fall
// through to AgentGeneralQA.
func (r *Router) Route(query string) AgentType {
	lower := strings.ToLower(query)

	for _, rule := range r.rules {
		if rule.matches(lower) {
			log.Printf("router: routed query to %s: %s", rule.agent, truncateForLog(query))
			return rule.agent
		}
	}

	log.Printf("router: default routing to %s: %s", AgentGeneralQA, truncateForLog(query))
	return AgentGeneralQA
}

var (
	generalKeywords = []string{
		"what", "who", "when", "where", "why", "how",
		"explain", "describe", "tell me about",
	}
	technicalKeywords = []string{
		"api", "database", "server", "network", "security",
		"algorithm", "framework", "library", "protocol",
		"architecture", "infrastructure", "deployment",
	}
	creativeKeywords = []string{
		"design", "create", "imagine", "brainstorm",
		"innovative", "creative", "story", "poem",
		"artwork", "music", "fiction",
	}
	codeKeywords = []string{
		"code", "program", "function", "class", "variable",
		"python", "javascript", "java", "c++", "sql",
		"debug", "error", "exception", "syntax",
	}
	mathKeywords = []string{
		"calculate", "compute", "solve", "equation",
		"formula", "theorem", "proof", "integral",
		"derivative", "matrix", "probability",
	}
	mathSymbols = []string{"=", "+", "-", "*", "/", "^", "√", "∑", "∫"}
)

func matchesAny(keywords []string) func(string) bool {
	return func(query string) bool {
		for _, kw := range keywords {
			if strings.Contains(query, kw) {
				return true
			}
		}
		return false
	}
}

func isMath(query string) bool {
	for _, kw := range mathKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	for _, sym := range mathSymbols {
		if strings.Contains(query, sym) {
			return true
		}
	}
	return false
}

// Config returns the generation parameters for an agent type. Unknown types
// get the general QA configuration.
func Config(agent AgentType) AgentConfig {
	switch agent {
	case AgentTechnical:
		return AgentConfig{
			Model:        "llama3-70b-8192",
			Temperature:  0.1,
			MaxTokens:    1500,
			SystemPrompt: "You are a technical expert. Provide detailed, accurate technical information.",
		}
	case AgentCreative:
		return AgentConfig{
			Model:        "llama3-70b-8192",
			Temperature:  0.8,
			MaxTokens:    1200,
			SystemPrompt: "You are a creative assistant. Be imaginative and help with creative tasks.",
		}
	case AgentCode:
		return AgentConfig{
			Model:        "llama3-70b-8192",
			Temperature:  0.1,
			MaxTokens:    2000,
			SystemPrompt: "You are a programming expert. Provide accurate code solutions and explanations.",
		}
	case AgentMath:
		return AgentConfig{
			Model:        "llama3-70b-8192",
			Temperature:  0.0,
			MaxTokens:    1000,
			SystemPrompt: "You are a mathematics expert. Solve problems step by step with clear explanations.",
		}
	default:
		return AgentConfig{
			Model:        "llama3-8b-8192",
			Temperature:  0.2,
			MaxTokens:    1000,
			SystemPrompt: "You are a helpful assistant. Answer questions based on the provided context.",
		}
	}
}

func truncateForLog(query string) string {
	const max = 50
	if len(query) <= max {
		return query
	}
	return query[:max] + "..."
}
