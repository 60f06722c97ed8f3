package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAI defaults.
const (
	OpenAIURL          = "https://api.openai.com/v1/chat/completions"
	OpenAIDefaultModel = "gpt-4o-mini"
	OpenAICostPerToken = 0.00015
)

type openAIRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
}

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = OpenAIDefaultModel
	}
	url := cfg.BaseURL
	if url == "" {
		url = OpenAIURL
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      model,
		url:        url,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() Name { return OpenAI }

// Model returns the configured model.
func (c *OpenAIClient) Model() string { return c.model }

// CostPerToken returns the OpenAI per-token price.
func (c *OpenAIClient) CostPerToken() float64 { return OpenAICostPerToken }

// Complete sends the system prompt, history and user turn as one chat request.
func (c *OpenAIClient) Complete(ctx context.Context, r Request) (*Completion, error) {
	model := r.Model
	if model == "" {
		model = c.model
	}

	messages := make([]ChatMessage, 0, len(r.Messages)+1)
	if r.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: r.System})
	}
	messages = append(messages, r.Messages...)

	payload, err := json.Marshal(openAIRequest{
		Model:            model,
		Messages:         messages,
		MaxTokens:        r.MaxTokens,
		Temperature:      r.Temperature,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := do(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	return Normalize(ShapeOpenAI, body)
}
