package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	r := New()

	tests := []struct {
		name  string
		query string
		want  AgentType
	}{
		{"question word", "What is the capital of France", AgentGeneralQA},
		{"explain", "explain the retention policy", AgentGeneralQA},
		{"technical", "optimize the database schema", AgentTechnical},
		{"technical api", "rate limiting for the api", AgentTechnical},
		{"creative", "write a poem for the launch", AgentCreative},
		{"code", "fix this python exception", AgentCode},
		{"math keyword", "solve this equation for x", AgentMath},
		{"math symbol", "2 + 2", AgentMath},
		{"no match defaults", "banana", AgentGeneralQA},
		{"case insensitive", "EXPLAIN the process", AgentGeneralQA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(tt.query))
		})
	}
}

func TestRoute_PriorityOrder(t *testing.T) {
	r := New()

	// "how" matches general QA before the code rule can see "debug": the
	// rule table is evaluated in declaration order.
	assert.Equal(t, AgentGeneralQA, r.Route("how do I debug this"))

	// Without a general QA keyword, the code rule wins.
	assert.Equal(t, AgentCode, r.Route("debug this stack trace"))
}

func TestConfig(t *testing.T) {
	tests := []struct {
		agent       AgentType
		model       string
		temperature float32
		maxTokens   int
	}{
		{AgentGeneralQA, "llama3-8b-8192", 0.2, 1000},
		{AgentTechnical, "llama3-70b-8192", 0.1, 1500},
		{AgentCreative, "llama3-70b-8192", 0.8, 1200},
		{AgentCode, "llama3-70b-8192", 0.1, 2000},
		{AgentMath, "llama3-70b-8192", 0.0, 1000},
	}

	for _, tt := range tests {
		t.Run(string(tt.agent), func(t *testing.T) {
			cfg := Config(tt.agent)
			assert.Equal(t, tt.model, cfg.Model)
			assert.Equal(t, tt.temperature, cfg.Temperature)
			assert.Equal(t, tt.maxTokens, cfg.MaxTokens)
			assert.NotEmpty(t, cfg.SystemPrompt)
		})
	}
}

func TestConfig_UnknownAgentGetsDefault(t *testing.T) {
	cfg := Config(AgentType("nonsense"))
	assert.Equal(t, Config(AgentGeneralQA), cfg)
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", truncateForLog("short"))

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateForLog(string(long))
	assert.Len(t, got, 53)
	assert.Contains(t, got, "...")
}
