// Package ai wraps a single chat-completion provider behind rate, cost and cache guardrails.
package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/services/ai/provider"
	"github.com/itera/chatbot-service/internal/services/guardrails"
)

// ErrMissingAPIKey is returned when the configured provider has no API key.
var ErrMissingAPIKey = provider.ErrMissingAPIKey

// Engine defaults.
const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
	DefaultCostLimit   = 0.10
	// MaxHistoryMessages is how many prior turns are sent to the provider.
	MaxHistoryMessages = 5
)

// Canned replies.
const (
	RateLimitMessage = "Scusa, stai inviando messaggi troppo velocemente. Attendi qualche secondo."
	CostLimitMessage = "Per continuare la conversazione, ti metterò in contatto con un nostro esperto umano."
	AIErrorMessage   = "Scusa, c'è stato un problema tecnico. Un momento, passo la conversazione a un nostro esperto."
)

// ConversationContext is the session state the engine needs for one call.
type ConversationContext struct {
	Step                string
	History             []provider.ChatMessage
	LeadData            map[string]string
	EscalationRequested bool
}

// Response is the engine reply for one turn.
type Response struct {
	Message  string          `json:"message"`
	Intent   string          `json:"intent"`
	Escalate bool            `json:"escalate"`
	Options  []string        `json:"options"`
	NextStep string          `json:"nextStep,omitempty"`
	Cost     float64         `json:"cost"`
	Cached   bool            `json:"cached"`
	Usage    *provider.Usage `json:"usage,omitempty"`
	Provider string          `json:"provider,omitempty"`
}

// Generator produces a reply for one message. Implementations never return nil.
type Generator interface {
	GenerateResponse(ctx context.Context, message string, cc ConversationContext, sessionID string) *Response
}

// Config holds the configuration for the engine.
type Config struct {
	Provider     provider.Provider
	RateLimiter  *guardrails.RateLimiter
	Ledger       *guardrails.CostLedger
	Cache        *guardrails.ResponseCache
	MaxTokens    int
	Temperature  float64
	CostLimit    float64
	SystemPrompt string
}

// Engine calls the provider once per turn after the guardrails pass.
type Engine struct {
	provider     provider.Provider
	rateLimiter  *guardrails.RateLimiter
	ledger       *guardrails.CostLedger
	cache        *guardrails.ResponseCache
	maxTokens    int
	temperature  float64
	costLimit    float64
	systemPrompt string
	stats        *usageStats
}

// NewEngine creates a new engine.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.RateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("cost ledger is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("response cache is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	costLimit := cfg.CostLimit
	if costLimit <= 0 {
		costLimit = DefaultCostLimit
	}
	temperature := cfg.Temperature
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &Engine{
		provider:     cfg.Provider,
		rateLimiter:  cfg.RateLimiter,
		ledger:       cfg.Ledger,
		cache:        cfg.Cache,
		maxTokens:    maxTokens,
		temperature:  temperature,
		costLimit:    costLimit,
		systemPrompt: systemPrompt,
		stats:        &usageStats{since: time.Now().UTC()},
	}, nil
}

// GenerateResponse runs rate limit, cost ceiling and cache checks in that order,
// then calls the provider. It never returns nil and never propagates provider errors.
func (e *Engine) GenerateResponse(ctx context.Context, message string, cc ConversationContext, sessionID string) *Response {
	if !e.rateLimiter.Allow(ctx, guardrails.ScopeSession, sessionID) {
		log.Info().Str("session_id", sessionID).Msg("session rate limit reached")
		return &Response{Message: RateLimitMessage, Intent: IntentRateLimit, Options: []string{}}
	}

	spent, err := e.ledger.Total(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("cost ledger unavailable, continuing")
	}
	if spent >= e.costLimit {
		log.Info().Str("session_id", sessionID).Float64("spent", spent).Msg("session cost limit reached")
		return &Response{
			Message:  CostLimitMessage,
			Intent:   IntentCostLimitReached,
			Escalate: true,
			Options:  []string{},
		}
	}

	cached, err := e.cache.Get(ctx, message, cc.Step)
	if err != nil {
		log.Warn().Err(err).Msg("response cache unavailable, continuing")
	}
	if cached != nil {
		e.stats.recordCacheHit()
		return &Response{
			Message:  cached.Message,
			Intent:   cached.Intent,
			Escalate: cached.Escalate,
			Options:  cached.Options,
			NextStep: cached.NextStep,
			Cached:   true,
		}
	}
	e.stats.recordCacheMiss()

	completion, err := e.provider.Complete(ctx, e.buildRequest(message, cc))
	if err != nil {
		e.stats.recordError()
		log.Error().Err(err).Str("session_id", sessionID).Str("provider", string(e.provider.Name())).Msg("AI provider call failed")
		return &Response{
			Message:  AIErrorMessage,
			Intent:   IntentAIError,
			Escalate: true,
			Options:  []string{},
		}
	}

	cost := float64(completion.Usage.TotalTokens) * e.provider.CostPerToken()
	if _, err := e.ledger.Add(ctx, sessionID, cost); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record AI cost")
	}
	e.stats.recordCall(cost)

	intent := extractIntent(completion.Text, cc)
	resp := &Response{
		Message:  completion.Text,
		Intent:   intent,
		Escalate: shouldEscalate(completion.Text, intent, cc),
		Options:  OptionsFor(intent),
		NextStep: NextStepFor(intent),
		Cost:     cost,
		Usage:    &completion.Usage,
		Provider: string(e.provider.Name()),
	}

	if isCacheable(intent, resp.Message) {
		err := e.cache.Put(ctx, message, cc.Step, guardrails.CachedResponse{
			Message:  resp.Message,
			Intent:   resp.Intent,
			Escalate: resp.Escalate,
			Options:  resp.Options,
			NextStep: resp.NextStep,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to cache AI response")
		}
	}

	return resp
}

// ProviderName returns the configured provider name.
func (e *Engine) ProviderName() string {
	return string(e.provider.Name())
}

// Model returns the configured model.
func (e *Engine) Model() string {
	return e.provider.Model()
}

// CostLimit returns the per-session cost ceiling.
func (e *Engine) CostLimit() float64 {
	return e.costLimit
}

// UsageStats returns a snapshot of the engine counters.
func (e *Engine) UsageStats() UsageStats {
	return e.stats.snapshot()
}

// ResetUsage clears the cost ledger, the session rate windows and the counters.
func (e *Engine) ResetUsage(ctx context.Context) error {
	if _, err := e.ledger.Reset(ctx); err != nil {
		return err
	}
	if _, err := e.rateLimiter.Reset(ctx, guardrails.ScopeSession); err != nil {
		return err
	}
	e.stats.reset()
	log.Info().Msg("AI usage reset")
	return nil
}

func (e *Engine) buildRequest(message string, cc ConversationContext) provider.Request {
	history := cc.History
	if len(history) > MaxHistoryMessages {
		history = history[len(history)-MaxHistoryMessages:]
	}

	messages := make([]provider.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, provider.ChatMessage{Role: "user", Content: message})

	return provider.Request{
		Model:       e.provider.Model(),
		System:      buildSystemPrompt(e.systemPrompt, cc),
		Messages:    messages,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	}
}

// UsageStats summarizes engine activity since the last reset.
type UsageStats struct {
	TotalConversations int64     `json:"totalConversations"`
	TotalCost          float64   `json:"totalCost"`
	AverageCost        float64   `json:"averageCost"`
	CacheHits          int64     `json:"cacheHits"`
	CacheMisses        int64     `json:"cacheMisses"`
	CacheHitRate       float64   `json:"cacheHitRate"`
	Errors             int64     `json:"errors"`
	Since              time.Time `json:"since"`
}

type usageStats struct {
	mu          sync.Mutex
	calls       int64
	totalCost   float64
	cacheHits   int64
	cacheMisses int64
	errors      int64
	since       time.Time
}

func (s *usageStats) recordCall(cost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.totalCost += cost
}

func (s *usageStats) recordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

func (s *usageStats) recordCacheMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheMisses++
}

func (s *usageStats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *usageStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = 0
	s.totalCost = 0
	s.cacheHits = 0
	s.cacheMisses = 0
	s.errors = 0
	s.since = time.Now().UTC()
}

func (s *usageStats) snapshot() UsageStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := UsageStats{
		TotalConversations: s.calls,
		TotalCost:          s.totalCost,
		CacheHits:          s.cacheHits,
		CacheMisses:        s.cacheMisses,
		Errors:             s.errors,
		Since:              s.since,
	}
	if s.calls > 0 {
		out.AverageCost = s.totalCost / float64(s.calls)
	}
	if lookups := s.cacheHits + s.cacheMisses; lookups > 0 {
		out.CacheHitRate = float64(s.cacheHits) / float64(lookups)
	}
	return out
}
