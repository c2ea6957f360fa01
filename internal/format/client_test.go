// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/keepconv/pkg/types"
)

func testBackend(url string) *OpenAIBackend {
	return NewOpenAIBackend(types.FormatConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: url,
		Timeout: 5 * time.Second,
	})
}

func TestOpenAIBackend_Success(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "# Corrected\n\ntext"}}},
		})
	}))
	defer ts.Close()

	got, err := testBackend(ts.URL).Correct(context.Background(), "raw ocr text")
	require.NoError(t, err)
	assert.Equal(t, "# Corrected\n\ntext", got)

	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "OCR correction assistant")
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "'''raw ocr text'''")
}

func TestOpenAIBackend_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := testBackend(ts.URL).Correct(context.Background(), "raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "upstream overloaded")
}

func TestOpenAIBackend_ErrorPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{
			Error: &chatError{Message: "invalid api key", Type: "invalid_request_error"},
		})
	}))
	defer ts.Close()

	_, err := testBackend(ts.URL).Correct(context.Background(), "raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIBackend_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer ts.Close()

	_, err := testBackend(ts.URL).Correct(context.Background(), "raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIBackend_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("definitely not json"))
	}))
	defer ts.Close()

	_, err := testBackend(ts.URL).Correct(context.Background(), "raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestOpenAIBackend_Timeout(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	b := NewOpenAIBackend(types.FormatConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	_, err := b.Correct(context.Background(), "raw")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "per-request timeout should cut the call short")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewOpenAIBackend_Defaults(t *testing.T) {
	b := NewOpenAIBackend(types.FormatConfig{APIKey: "k"})

	assert.Equal(t, "gpt-4o-mini", b.model)
	assert.Equal(t, "https://api.openai.com/v1", b.baseURL)
	assert.Equal(t, 30*time.Second, b.timeout)

	transport, ok := b.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 5, transport.MaxConnsPerHost)
}

func TestNewOpenAIBackend_TrimsBaseURL(t *testing.T) {
	b := NewOpenAIBackend(types.FormatConfig{BaseURL: "https://proxy.internal/v1/"})
	assert.Equal(t, "https://proxy.internal/v1", b.baseURL)
}
