// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/keepconv/pkg/types"
)

// systemPrompt pins the correction behavior: clean up recognition
// artifacts without rewriting the text.
const systemPrompt = "You are an OCR correction assistant. Your job is to fix misrecognized characters, " +
	"preserve original text structure, and correct minor errors (spacing, punctuation, " +
	"capitalization). DO NOT alter wording, meaning, or sentence structure. " +
	"Make the output as faithful to the original text as possible while cleaning up OCR artifacts. " +
	"Retain all line breaks, bullet points, and structure as closely as possible."

// Backend abstracts the text-correction service so tests can supply a mock.
type Backend interface {
	// Correct returns a cleaned-up version of text. Any error is
	// retryable from the caller's point of view.
	Correct(ctx context.Context, text string) (string, error)
}

// OpenAIBackend corrects text through an OpenAI-compatible
// chat-completions endpoint.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewOpenAIBackend builds a backend from cfg, applying defaults for any
// zero fields. The underlying transport caps connections to the endpoint
// so a large batch cannot open an unbounded number of sockets.
func NewOpenAIBackend(cfg types.FormatConfig) *OpenAIBackend {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 5
	}
	return &OpenAIBackend{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Transport: &http.Transport{MaxConnsPerHost: maxConns},
		},
	}
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error"`
}

// chatChoice is one generated completion.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// chatError is the service-reported error payload.
type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Correct implements Backend. Each call carries its own timeout so one
// hung request cannot stall the pipeline past the configured bound.
func (b *OpenAIBackend) Correct(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	reqBody := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Convert the following OCR text to Markdown, preserving all formatting:\n\n'''%s'''", text)},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling correction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("correction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if cResp.Error != nil {
		return "", fmt.Errorf("correction service error: %s", cResp.Error.Message)
	}
	if len(cResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return cResp.Choices[0].Message.Content, nil
}
