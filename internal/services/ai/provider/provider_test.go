package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/itera/chatbot-service/internal/services/ai/provider"
)

func TestNormalize_OpenAI(t *testing.T) {
	body := []byte(`{"choices":[{"message":{"content":"Ciao!"}}],"usage":{"prompt_tokens":80,"completion_tokens":20,"total_tokens":100}}`)

	completion, err := provider.Normalize(provider.ShapeOpenAI, body)

	require.NoError(t, err)
	assert.Equal(t, "Ciao!", completion.Text)
	assert.Equal(t, provider.Usage{InputTokens: 80, OutputTokens: 20, TotalTokens: 100}, completion.Usage)
}

func TestNormalize_Anthropic(t *testing.T) {
	body := []byte(`{"content":[{"type":"text","text":"Buongiorno"}],"usage":{"input_tokens":60,"output_tokens":15}}`)

	completion, err := provider.Normalize(provider.ShapeAnthropic, body)

	require.NoError(t, err)
	assert.Equal(t, "Buongiorno", completion.Text)
	assert.Equal(t, 75, completion.Usage.TotalTokens)
}

func TestNormalize_EmptyTextFallsBack(t *testing.T) {
	completion, err := provider.Normalize(provider.ShapeOpenAI, []byte(`{"choices":[]}`))

	require.NoError(t, err)
	assert.Equal(t, provider.EmptyReplyText, completion.Text)
	assert.Zero(t, completion.Usage.TotalTokens)
}

func TestNormalize_Malformed(t *testing.T) {
	_, err := provider.Normalize(provider.ShapeAnthropic, []byte(`<html>bad gateway</html>`))
	assert.Error(t, err)

	_, err = provider.Normalize(provider.ShapeOpenAI, []byte(`[1,2]`))
	assert.Error(t, err)
}

func TestOpenAIClient_Complete(t *testing.T) {
	// Arrange
	var captured []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var payload map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		captured, _ = json.Marshal(payload)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Certo!"}}],"usage":{"total_tokens":42}}`))
	}))
	defer server.Close()

	client, err := provider.NewOpenAIClient(provider.Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	// Act
	completion, err := client.Complete(context.Background(), provider.Request{
		System:      "sei Mark",
		Messages:    []provider.ChatMessage{{Role: "user", Content: "ciao"}},
		MaxTokens:   150,
		Temperature: 0.7,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Certo!", completion.Text)
	assert.Equal(t, 42, completion.Usage.TotalTokens)
	parsed := gjson.ParseBytes(captured)
	assert.Equal(t, "gpt-4o-mini", parsed.Get("model").String())
	assert.Equal(t, "system", parsed.Get("messages.0.role").String())
	assert.Equal(t, "ciao", parsed.Get("messages.1.content").String())
	assert.Equal(t, int64(150), parsed.Get("max_tokens").Int())
	assert.InDelta(t, 0.1, parsed.Get("presence_penalty").Float(), 1e-9)
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, provider.AnthropicVersion, r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"content":[{"text":"Salve"}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	client, err := provider.NewAnthropicClient(provider.Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), provider.Request{MaxTokens: 150})

	require.NoError(t, err)
	assert.Equal(t, "Salve", completion.Text)
	assert.Equal(t, 15, completion.Usage.TotalTokens)
	assert.Equal(t, provider.AnthropicCostPerToken, client.CostPerToken())
}

func TestClient_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := provider.NewOpenAIClient(provider.Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), provider.Request{})

	assert.ErrorContains(t, err, "unexpected status code: 429")
}

func TestNew(t *testing.T) {
	p, err := provider.New(provider.Anthropic, provider.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, provider.Anthropic, p.Name())
	assert.Equal(t, provider.AnthropicDefaultModel, p.Model())

	_, err = provider.New(provider.OpenAI, provider.Config{})
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)

	_, err = provider.New("mistral", provider.Config{APIKey: "k"})
	assert.Error(t, err)
}
