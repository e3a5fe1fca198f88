package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingAPIKey(t *testing.T) {
	for _, provider := range []string{config.ProviderAnthropic, config.ProviderOpenAI, config.ProviderGemini} {
		t.Run(provider, func(t *testing.T) {
			_, err := New(context.Background(), Config{Provider: provider})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ConfigurationKind))
		})
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "bedrock", APIKey: "k"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ConfigurationKind))
	assert.Contains(t, err.Error(), "bedrock")
}

func TestNew_DefaultModels(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{"", "", config.DefaultModel},
		{config.ProviderAnthropic, "claude-3-opus-20240229", "claude-3-opus-20240229"},
		{config.ProviderOpenAI, config.DefaultModel, defaultOpenAIModel},
		{config.ProviderOpenAI, "gpt-4o-mini", "gpt-4o-mini"},
		{config.ProviderGemini, "", defaultGeminiModel},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.want, func(t *testing.T) {
			c, err := New(context.Background(), Config{Provider: tt.provider, APIKey: "k", Model: tt.model})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Model())
		})
	}
}

func TestAnthropicComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "OK"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 1}
		}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 2048})
	require.NoError(t, err)

	assert.Equal(t, "OK", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 1, resp.OutputTokens)

	assert.Equal(t, config.DefaultModel, got["model"])
	assert.EqualValues(t, 2048, got["max_tokens"])
	assert.NotContains(t, got, "temperature")
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicComplete_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 16})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ServiceKind))
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnthropicComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_02","type":"message","role":"assistant","model":"m",
			"content":[],"stop_reason":"max_tokens","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 16})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ServiceKind))
}

func openAIServer(t *testing.T, failFirst int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if int(n) <= failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error":{"message":"try later","type":"server_error"}}`)
			return
		}
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "OK"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 1, "total_tokens": 10}
		}`)
	}))
}

func TestOpenAIComplete(t *testing.T) {
	var calls atomic.Int32
	srv := openAIServer(t, 0, &calls)
	defer srv.Close()

	c, err := New(context.Background(), Config{Provider: config.ProviderOpenAI, APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Text)
	assert.Equal(t, 9, resp.InputTokens)
	assert.Equal(t, 1, resp.OutputTokens)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOpenAIComplete_Retries(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		wantErr    bool
		wantCalls  int32
	}{
		{"single attempt", 0, true, 1},
		{"retry succeeds", 1, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := openAIServer(t, 1, &calls)
			defer srv.Close()

			c, err := New(context.Background(), Config{
				Provider:     config.ProviderOpenAI,
				APIKey:       "k",
				BaseURL:      srv.URL + "/v1",
				MaxRetries:   tt.maxRetries,
				retryWaitMin: time.Millisecond,
			})
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 64})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ServiceKind))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestGeminiComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "O"}, {"text": "K"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 1, "totalTokenCount": 8}
		}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{Provider: config.ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Text)
	assert.Equal(t, 7, resp.InputTokens)
	assert.Equal(t, 1, resp.OutputTokens)
}

func TestGeminiComplete_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{Provider: config.ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Prompt: "hello", MaxTokens: 64})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ServiceKind))
}
