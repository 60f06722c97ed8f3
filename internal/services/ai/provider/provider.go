// Package provider contains the chat-completion adapters for the supported AI vendors.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrMissingAPIKey is returned when a provider is built without credentials.
var ErrMissingAPIKey = errors.New("provider API key is required")

// Name identifies a provider.
type Name string

const (
	// OpenAI is the OpenAI chat completions API.
	OpenAI Name = "openai"
	// Anthropic is the Anthropic messages API.
	Anthropic Name = "anthropic"
)

const maxResponseBytes = 1 << 20

// ChatMessage is one prior turn sent as history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the provider-independent completion request.
type Request struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Usage is the normalized token usage of one completion.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Completion is the normalized provider reply.
type Completion struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Provider sends a completion request to one vendor.
type Provider interface {
	// Name returns the provider name.
	Name() Name
	// Model returns the default model.
	Model() string
	// CostPerToken returns the flat per-token price used for cost estimation.
	CostPerToken() float64
	// Complete performs the call and returns the normalized completion.
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Config holds the configuration shared by all providers.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// New creates the provider for name.
func New(name Name, cfg Config) (Provider, error) {
	switch name {
	case OpenAI:
		client, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case Anthropic:
		client, err := NewAnthropicClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", name)
	}
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}

// do executes req and returns the raw body of a 2xx response.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
