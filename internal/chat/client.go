// Package chat talks to an Ollama server to answer study questions.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrEmptyMessage is returned when there is nothing to ask.
	ErrEmptyMessage = errors.New("message is required")
	// ErrUpstream wraps failures of the model server.
	ErrUpstream = errors.New("chat backend unavailable")
)

const fallbackReply = "No response from the assistant."

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Client calls the Ollama generate endpoint without streaming.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewClient targets the Ollama server at baseURL. A nil httpClient gets a 60s timeout.
func NewClient(baseURL, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), model: model, http: httpClient}
}

// Ask sends message as a prompt and returns the model's reply.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: message, Stream: false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if out.Response == "" {
		return fallbackReply, nil
	}
	return out.Response, nil
}
