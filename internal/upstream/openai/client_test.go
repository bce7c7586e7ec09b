package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribeStreamsMultipartAndParsesJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "answer.webm", header.Filename)
		assert.Equal(t, "audio-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello"}`)
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "answer.webm", "whisper-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestTranscribeParsesPlainTextResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, "hello\nworld")
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	text, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "sample.wav", "whisper-1")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscribeWithoutKeySkipsNetwork(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	c := New(ts.URL, "", ts.Client())
	_, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "sample.wav", "whisper-1")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, hits)
	assert.False(t, c.HasAPIKey())
}

func TestTranscribeReturnsUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	_, err := c.Transcribe(context.Background(), strings.NewReader("audio"), "sample.wav", "whisper-1")
	require.Error(t, err)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
	assert.Equal(t, "rate limited", upErr.Body)
}

func TestChatCompletionPassesBodyThrough(t *testing.T) {
	const upstreamBody = `{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"## Overall Score"}}],"usage":{"prompt_tokens":50,"completion_tokens":10,"total_tokens":60}}`

	var got ChatCompletionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamBody)
	}))
	defer ts.Close()

	var observed []string
	c := New(ts.URL, "test-key", ts.Client(), WithObserver(func(endpoint string, status int, _ time.Duration) {
		observed = append(observed, endpoint)
		assert.Equal(t, http.StatusOK, status)
	}))
	resp, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{
		Model:       "gpt-4",
		Messages:    []ChatMessage{{Role: "system", Content: "coach"}, {Role: "user", Content: "hi"}},
		MaxTokens:   4000,
		Temperature: 0.1,
	})
	require.NoError(t, err)

	assert.JSONEq(t, upstreamBody, string(resp.Body))
	assert.Equal(t, upstreamBody, string(resp.Body))
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 60, resp.Usage.TotalTokens)
	assert.Equal(t, 4000, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, []string{"chat_completions"}, observed)
}

func TestChatCompletionReturnsUpstreamErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided"}}`)
	}))
	defer ts.Close()

	c := New(ts.URL, "bad-key", ts.Client())
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4"})

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "Incorrect API key")
}

func TestChatCompletionRejectsNonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4"})
	require.Error(t, err)
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("x", 5000)
	got := truncateBody(long)
	assert.Len(t, got, 4096+3)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "short", truncateBody("  short \n"))
}
