package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Paris."}}]}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/v1/", Key: "sk-test", Model: "gpt-4o-mini", MaxTokens: 256})
	answer, err := c.Generate(context.Background(), Request{
		System:      "be nice",
		Prompt:      "capital of France?",
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "be nice"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "capital of France?"}, got.Messages[1])
}

func TestGenerate_NoSystemNoKey(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := New(Config{URL: srv.URL, Model: "llama3", MaxTokens: 100}).
		Generate(context.Background(), Request{Prompt: "hi", MaxTokens: 10})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, 10, got.MaxTokens)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}).Generate(context.Background(), Request{Prompt: "x"})
		assert.ErrorContains(t, err, "status 429")
		assert.ErrorContains(t, err, "rate limited")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}).Generate(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("bad json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL}).Generate(context.Background(), Request{Prompt: "x"})
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		_, err := New(Config{URL: srv.URL, Timeout: 20 * time.Millisecond}).
			Generate(context.Background(), Request{Prompt: "x"})
		assert.Error(t, err)
	})
}

func TestNew_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultOpenAIURL, New(Config{}).cfg.URL)
}
