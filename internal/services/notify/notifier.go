// Package notify delivers escalation and lead-alert cards to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/pkg/workqueue"
)

// Notifier posts a card to the operators.
type Notifier interface {
	Notify(ctx context.Context, card Card) error
}

// WebhookConfig holds the configuration for the webhook notifier.
type WebhookConfig struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// WebhookNotifier posts cards to an incoming webhook URL.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config *WebhookConfig) (*WebhookNotifier, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &WebhookNotifier{
		url:        config.URL,
		httpClient: httpClient,
	}, nil
}

// Notify posts the card and fails on any non-2xx status.
func (n *WebhookNotifier) Notify(ctx context.Context, card Card) error {
	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier drops every card. Used when no webhook is configured.
type NoopNotifier struct{}

// Notify logs and discards the card.
func (NoopNotifier) Notify(_ context.Context, card Card) error {
	log.Debug().Str("summary", card.Summary).Msg("notification webhook not configured, card dropped")
	return nil
}

// Dispatcher delivers cards in the background so callers never wait on the webhook.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	queue    *workqueue.Queue[Card]
}

// DispatcherConfig holds the configuration for the dispatcher.
type DispatcherConfig struct {
	QueueSize int
	Workers   int
	// Timeout bounds a single delivery.
	Timeout time.Duration
}

// NewDispatcher creates and starts a dispatcher around notifier.
func NewDispatcher(notifier Notifier, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	d := &Dispatcher{notifier: notifier, timeout: cfg.Timeout}
	d.queue = workqueue.New[Card]("notify", cfg.QueueSize, d.deliver)
	d.queue.Start(cfg.Workers)
	return d
}

// Notify enqueues the card and returns immediately. A full queue drops the card.
func (d *Dispatcher) Notify(_ context.Context, card Card) error {
	if !d.queue.Enqueue(card) {
		return fmt.Errorf("notification queue full")
	}
	return nil
}

// Stop drains pending cards and stops the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

func (d *Dispatcher) deliver(ctx context.Context, card Card) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, card); err != nil {
		return fmt.Errorf("failed to deliver %q: %w", card.Summary, err)
	}
	log.Info().Str("summary", card.Summary).Msg("notification delivered")
	return nil
}
