package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for the generation capability.
const (
	DefaultModel       = "llama3-8b-8192"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1000
)

// ErrNoAPIKey is returned when no credentials are configured.
var ErrNoAPIKey = errors.New("llm: no API key configured")

// Client is the generation capability: chat completions against an
// OpenAI-compatible endpoint (Groq by default). It is the only
// network-bound operation in the retrieval chain; callers attach request
// timeouts to the context passed in here.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a Client. baseURL may be empty for the stock OpenAI endpoint;
// model may be empty for the default.
func New(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}, nil
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

// Raw exposes the underlying API client for callers that need the full chat
// surface (the tool-calling agent).
func (c *Client) Raw() *openai.Client {
	return c.api
}

// Complete runs a single non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	return c.CompleteWithModel(ctx, c.model, system, user, temperature, maxTokens)
}

// CompleteWithModel runs a completion against an explicit model, used by the
// router's per-agent configurations.
func (c *Client) CompleteWithModel(ctx context.Context, model, system, user string, temperature float32, maxTokens int) (string, error) {
	if model == "" {
		model = c.model
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildMessages(system, user),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream runs a streaming completion, invoking fn with each text
// increment as it arrives. fn returning false stops forwarding; it does not
// cancel the upstream call beyond the context. Concatenating all increments
// yields the same text as Complete under normal operation. If the stream
// cannot be opened, the non-streaming path runs and the full answer is
// forwarded as a single increment.
func (c *Client) CompleteStream(ctx context.Context, model, system, user string, temperature float32, maxTokens int, fn func(delta string) bool) error {
	if model == "" {
		model = c.model
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildMessages(system, user),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
	})
	if err != nil {
		log.Printf("llm: streaming unavailable, falling back to single completion: %v", err)
		answer, cerr := c.CompleteWithModel(ctx, model, system, user, temperature, maxTokens)
		if cerr != nil {
			return cerr
		}
		fn(answer)
		return nil
	}
	defer func() { _ = stream.Close() }()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream receive failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if !fn(delta) {
				return nil
			}
		}
	}
}

func buildMessages(system, user string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})
	return messages
}
