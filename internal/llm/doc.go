// Package llm wraps an OpenAI-compatible chat completion endpoint (Groq by
// default) behind a small client used by the compressor, planner, and
// agent.
//
//	client, err := llm.New(apiKey, baseURL, model)
//	answer, err := client.Complete(ctx, system, user, 0.2, 1000)
//
// CompleteStream forwards deltas to a callback as they arrive; if the
// stream cannot be opened it falls back to a non-streaming completion and
// delivers the whole answer in one callback. Raw exposes the underlying
// go-openai client for callers that need request shapes this wrapper does
// not cover (the agent's tool-calling requests).
package llm
