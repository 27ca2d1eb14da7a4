package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAI serves a minimal OpenAI-compatible chat completion endpoint. The
// streaming path emits content in fixed increments whose concatenation equals
// the non-streaming answer.
func fakeOpenAI(t *testing.T, answer string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, answer)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range splitIncrements(answer, 3) {
			chunk, _ := json.Marshal(map[string]any{
				"id":     "1",
				"object": "chat.completion.chunk",
				"choices": []map[string]any{
					{"index": 0, "delta": map[string]string{"content": delta}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	})

	return httptest.NewServer(mux)
}

func splitIncrements(s string, size int) []string {
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "", "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("key", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())

	c, err = New("key", "", "llama3-70b-8192")
	require.NoError(t, err)
	assert.Equal(t, "llama3-70b-8192", c.Model())
}

func TestComplete(t *testing.T) {
	ts := fakeOpenAI(t, "the answer is 42")
	defer ts.Close()

	c, err := New("test-key", ts.URL+"/v1", "")
	require.NoError(t, err)

	answer, err := c.Complete(context.Background(), "system prompt", "user question", 0.2, 100)
	require.NoError(t, err)
	assert.Equal(t, "the answer is 42", answer)
}

func TestCompleteStream_ConcatenationEqualsComplete(t *testing.T) {
	ts := fakeOpenAI(t, "streaming answers arrive in small pieces")
	defer ts.Close()

	c, err := New("test-key", ts.URL+"/v1", "")
	require.NoError(t, err)

	full, err := c.Complete(context.Background(), "", "question", 0.2, 100)
	require.NoError(t, err)

	var b strings.Builder
	err = c.CompleteStream(context.Background(), "", "", "question", 0.2, 100, func(delta string) bool {
		b.WriteString(delta)
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, full, b.String())
}

func TestCompleteStream_ConsumerStop(t *testing.T) {
	ts := fakeOpenAI(t, "a long answer that the consumer abandons early")
	defer ts.Close()

	c, err := New("test-key", ts.URL+"/v1", "")
	require.NoError(t, err)

	seen := 0
	err = c.CompleteStream(context.Background(), "", "", "question", 0.2, 100, func(delta string) bool {
		seen++
		return seen < 2
	})

	// Stopping the consumer is not an error.
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestComplete_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := New("test-key", ts.URL+"/v1", "")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "", "question", 0.2, 100)
	assert.Error(t, err)
}

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages("sys", "usr")
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "sys", msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)

	msgs = buildMessages("", "usr")
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
}
