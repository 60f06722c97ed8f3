package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Anthropic defaults.
const (
	AnthropicURL          = "https://api.anthropic.com/v1/messages"
	AnthropicDefaultModel = "claude-3-haiku-20240307"
	AnthropicVersion      = "2023-06-01"
	AnthropicCostPerToken = 0.00025
)

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []ChatMessage `json:"messages"`
}

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = AnthropicDefaultModel
	}
	url := cfg.BaseURL
	if url == "" {
		url = AnthropicURL
	}
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		model:      model,
		url:        url,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() Name { return Anthropic }

// Model returns the configured model.
func (c *AnthropicClient) Model() string { return c.model }

// CostPerToken returns the Anthropic per-token price.
func (c *AnthropicClient) CostPerToken() float64 { return AnthropicCostPerToken }

// Complete sends the request with the system prompt as a top-level field.
func (c *AnthropicClient) Complete(ctx context.Context, r Request) (*Completion, error) {
	model := r.Model
	if model == "" {
		model = c.model
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		System:      r.System,
		Messages:    r.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", AnthropicVersion)

	body, err := do(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	return Normalize(ShapeAnthropic, body)
}
