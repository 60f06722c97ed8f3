// Package routing splits sessions between the swarm orchestrator and the
// traditional single-call AI path and compares the two arms.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/core/cache"
	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/pkg/workqueue"
	"github.com/itera/chatbot-service/internal/services/ai"
	"github.com/itera/chatbot-service/internal/services/ai/provider"
	"github.com/itera/chatbot-service/internal/services/leadscore"
	"github.com/itera/chatbot-service/internal/services/notify"
	"github.com/itera/chatbot-service/internal/services/rules"
	"github.com/itera/chatbot-service/internal/services/swarm"
)

// ErrSwarmFailed is recorded when the swarm arm could not produce a result.
var ErrSwarmFailed = errors.New("swarm processing failed")

// Arm is one of the two processing paths.
type Arm string

const (
	ArmSwarm       Arm = "swarm"
	ArmTraditional Arm = "traditional"
)

// Router defaults.
const (
	DefaultSwarmPercentage = 10
	DefaultSwarmCost       = 0.04
	DefaultPerformanceTTL  = 7 * 24 * time.Hour
	// HistoryMessages is how many prior messages the traditional arm forwards.
	HistoryMessages = 5
)

// Traditional-arm intents.
const (
	IntentFirewall  = "firewall_inquiry"
	IntentBackup    = "backup_inquiry"
	IntentPricing   = "pricing_request"
	IntentSupport   = "support_request"
	IntentMicrosoft = "microsoft_inquiry"
	IntentGeneral   = "general_inquiry"
)

// SwarmProcessor is the swarm arm.
type SwarmProcessor interface {
	ProcessMessage(ctx context.Context, sessionID, message string, cc swarm.ConversationContext) *swarm.Result
}

// ResponseGenerator is the guarded, retried AI call of the traditional arm.
type ResponseGenerator interface {
	Generate(ctx context.Context, message string, cc ai.ConversationContext, sessionID string) (*ai.Response, error)
}

// Metadata describes how a normalized response was produced.
type Metadata struct {
	ProcessingMode Arm    `json:"processingMode"`
	FallbackFrom   Arm    `json:"fallbackFrom,omitempty"`
	AgentsUsed     int    `json:"agentsUsed,omitempty"`
	ConsensusScore int    `json:"consensusScore,omitempty"`
	ConsensusRule  string `json:"consensusRule,omitempty"`
	SwarmFallback  bool   `json:"swarmFallback,omitempty"`
	Blocked        bool   `json:"blocked,omitempty"`
	BlockCategory  string `json:"blockCategory,omitempty"`
	Augmented      bool   `json:"augmented,omitempty"`
	Cached         bool   `json:"cached,omitempty"`
	Provider       string `json:"provider,omitempty"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// NormalizedResponse is the arm-independent reply shape.
type NormalizedResponse struct {
	Response         string   `json:"response"`
	Intent           string   `json:"intent"`
	LeadScore        int      `json:"leadScore"`
	SuggestedActions []string `json:"suggestedActions"`
	Options          []string `json:"options"`
	Escalate         bool     `json:"escalate"`
	NextStep         string   `json:"nextStep,omitempty"`
	Metadata         Metadata `json:"metadata"`
	Cost             float64  `json:"cost"`
	Arm              Arm      `json:"arm"`
}

// Config holds the configuration for the router.
type Config struct {
	Swarm SwarmProcessor
	// AI is nil when the AI engine is disabled; the traditional arm then fails.
	AI       ResponseGenerator
	Notifier notify.Notifier
	// PerformanceStore receives one record per turn. Nil disables recording.
	PerformanceStore cache.Client
	PerformanceTTL   time.Duration
	ABTestEnabled    bool
	SwarmPercentage  int
	MinSampleSize    int
	QueueSize        int
}

// Router assigns sessions to arms and tracks per-arm metrics.
type Router struct {
	swarm      SwarmProcessor
	ai         ResponseGenerator
	notifier   notify.Notifier
	perfStore  cache.Client
	perfTTL    time.Duration
	abEnabled  bool
	mu         sync.RWMutex
	percentage int
	metrics    *metricsBook
	perfQueue  *workqueue.Queue[models.PerformanceRecord]
}

// NewRouter creates a new router and starts its performance recorder.
func NewRouter(cfg *Config) (*Router, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Swarm == nil {
		return nil, fmt.Errorf("swarm processor is required")
	}
	if cfg.SwarmPercentage < 0 || cfg.SwarmPercentage > 100 {
		return nil, fmt.Errorf("swarm percentage must be between 0 and 100, got %d", cfg.SwarmPercentage)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	perfTTL := cfg.PerformanceTTL
	if perfTTL <= 0 {
		perfTTL = DefaultPerformanceTTL
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	r := &Router{
		swarm:      cfg.Swarm,
		ai:         cfg.AI,
		notifier:   notifier,
		perfStore:  cfg.PerformanceStore,
		perfTTL:    perfTTL,
		abEnabled:  cfg.ABTestEnabled,
		percentage: cfg.SwarmPercentage,
		metrics:    newMetricsBook(cfg.MinSampleSize),
	}
	if r.perfStore != nil {
		r.perfQueue = workqueue.New[models.PerformanceRecord]("performance", queueSize, r.storePerformance)
		r.perfQueue.Start(1)
	}
	return r, nil
}

// ShouldUseSwarm reports the arm of a session. Disabled A/B testing always selects swarm.
func (r *Router) ShouldUseSwarm(sessionID string) bool {
	if !r.abEnabled {
		return true
	}
	return Bucket(sessionID) < r.SwarmPercentage()
}

// SwarmPercentage returns the current swarm traffic share.
func (r *Router) SwarmPercentage() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.percentage
}

// SetSwarmPercentage overrides the swarm traffic share, clamped to 0..100.
func (r *Router) SetSwarmPercentage(p int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percentage = clampPercentage(p)
}

// ProcessMessage routes one turn. session must already contain the visitor message.
// A failed swarm arm is retried once on the traditional arm.
func (r *Router) ProcessMessage(ctx context.Context, sessionID, message string, session *models.Session) (*NormalizedResponse, error) {
	if session == nil {
		session = models.NewSession(sessionID)
	}

	start := time.Now()
	if r.ShouldUseSwarm(sessionID) {
		resp, err := r.processWithSwarm(ctx, sessionID, message, session)
		if err == nil {
			elapsed := time.Since(start)
			r.metrics.recordSuccess(ArmSwarm, elapsed, resp.Cost)
			r.finish(resp, sessionID, elapsed)
			return resp, nil
		}

		r.metrics.recordError(ArmSwarm)
		log.Warn().Err(err).Str("session_id", sessionID).Msg("swarm arm failed, falling back to traditional")

		start = time.Now()
		resp, tradErr := r.processTraditional(ctx, sessionID, message, session)
		if tradErr != nil {
			r.metrics.recordError(ArmTraditional)
			return nil, fmt.Errorf("%w: %w", err, tradErr)
		}
		elapsed := time.Since(start)
		r.metrics.recordSuccess(ArmTraditional, elapsed, resp.Cost)
		resp.Metadata.FallbackFrom = ArmSwarm
		r.finish(resp, sessionID, elapsed)
		return resp, nil
	}

	resp, err := r.processTraditional(ctx, sessionID, message, session)
	if err != nil {
		r.metrics.recordError(ArmTraditional)
		return nil, err
	}
	elapsed := time.Since(start)
	r.metrics.recordSuccess(ArmTraditional, elapsed, resp.Cost)
	r.finish(resp, sessionID, elapsed)
	return resp, nil
}

// Metrics returns per-arm aggregates and the arm comparison.
func (r *Router) Metrics() Metrics {
	return r.metrics.snapshot(r.SwarmPercentage())
}

// AdjustSwarmPercentage applies the comparison recommendation to the swarm share.
func (r *Router) AdjustSwarmPercentage() Adjustment {
	m := r.Metrics()
	adj := Adjustment{
		Previous:       m.SwarmPercentage,
		Current:        m.SwarmPercentage,
		Recommendation: m.Comparison.Recommendation,
	}
	if m.Comparison.Status != StatusReady {
		log.Info().Msg("not enough data to adjust swarm percentage")
		return adj
	}

	r.mu.Lock()
	switch adj.Recommendation {
	case RecommendIncrease:
		r.percentage = clampPercentage(r.percentage + increaseStep)
	case RecommendReduce:
		r.percentage = clampPercentage(r.percentage - reduceStep)
	}
	adj.Current = r.percentage
	r.mu.Unlock()

	log.Info().
		Int("previous", adj.Previous).
		Int("current", adj.Current).
		Str("recommendation", adj.Recommendation).
		Msg("swarm percentage adjusted")
	return adj
}

// Stop drains pending performance records.
func (r *Router) Stop() {
	if r.perfQueue != nil {
		r.perfQueue.Stop()
	}
}

func (r *Router) processWithSwarm(ctx context.Context, sessionID, message string, session *models.Session) (resp *NormalizedResponse, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("%w: %v", ErrSwarmFailed, rec)
		}
	}()

	result := r.swarm.ProcessMessage(ctx, sessionID, message, swarm.ConversationContext{
		Step:     string(session.Step),
		LeadData: session.Context.LeadData,
	})
	if result == nil {
		return nil, ErrSwarmFailed
	}

	cost := result.Cost
	if cost == 0 {
		cost = DefaultSwarmCost
	}
	rule := result.Metadata.Rule

	return &NormalizedResponse{
		Response:         result.Response,
		Intent:           result.Intent,
		LeadScore:        result.LeadScore,
		SuggestedActions: result.NextSteps,
		Options:          result.Options,
		Escalate:         rule == "emergency" || rule == "qualified_lead",
		Cost:             cost,
		Arm:              ArmSwarm,
		Metadata: Metadata{
			ProcessingMode: ArmSwarm,
			AgentsUsed:     result.Metadata.AgentsUsed,
			ConsensusScore: result.Metadata.ConsensusScore,
			ConsensusRule:  rule,
			SwarmFallback:  result.Metadata.Fallback,
		},
	}, nil
}

func (r *Router) processTraditional(ctx context.Context, sessionID, message string, session *models.Session) (*NormalizedResponse, error) {
	intent := DetectIntent(message)
	resp := &NormalizedResponse{
		Intent:           intent,
		SuggestedActions: []string{},
		Options:          []string{},
		Arm:              ArmTraditional,
		Metadata:         Metadata{ProcessingMode: ArmTraditional},
	}

	if text, category, blocked := rules.CheckBlocked(message); blocked {
		resp.Response = text
		resp.Metadata.Blocked = true
		resp.Metadata.BlockCategory = category
	} else {
		if r.ai == nil {
			return nil, ai.ErrAIUnavailable
		}
		reply, err := r.ai.Generate(ctx, message, ai.ConversationContext{
			Step:                string(session.Step),
			History:             HistoryFor(session, message),
			LeadData:            session.Context.LeadData,
			EscalationRequested: session.Context.EscalationRequested,
		}, sessionID)
		if err != nil {
			return nil, err
		}

		filtered := rules.FilterOrAugment(message, session.Context.CurrentIntent, reply.Message)
		if ai.IsCannedIntent(reply.Intent) {
			resp.Intent = reply.Intent
		}
		resp.Response = filtered.Text
		resp.Options = reply.Options
		resp.Escalate = reply.Escalate
		resp.NextStep = reply.NextStep
		resp.Cost = reply.Cost
		resp.Metadata.Blocked = filtered.Blocked
		resp.Metadata.BlockCategory = filtered.Category
		resp.Metadata.Augmented = filtered.Augmented
		resp.Metadata.Cached = reply.Cached
		resp.Metadata.Provider = reply.Provider
	}

	transcript := session.Transcript()
	score := leadscore.Score(transcript, leadscore.Context{
		IsUrgent: strings.Contains(strings.ToLower(transcript), "urgente"),
	})
	resp.LeadScore = score
	if score >= notify.HighValueScore {
		if err := r.notifier.Notify(ctx, notify.LeadAlertCard(score, message)); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to queue lead alert")
		}
	}

	return resp, nil
}

// HistoryFor converts the trailing transcript to provider messages, leaving out
// the current visitor message which the engine appends itself.
func HistoryFor(session *models.Session, message string) []provider.ChatMessage {
	msgs := session.Messages
	if n := len(msgs); n > 0 && msgs[n-1].IsUser() && msgs[n-1].Content == message {
		msgs = msgs[:n-1]
	}
	if len(msgs) > HistoryMessages {
		msgs = msgs[len(msgs)-HistoryMessages:]
	}

	history := make([]provider.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "assistant"
		if m.IsUser() {
			role = "user"
		}
		history = append(history, provider.ChatMessage{Role: role, Content: m.Content})
	}
	return history
}

// DetectIntent is the keyword intent of the traditional arm.
func DetectIntent(message string) string {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "firewall", "watchguard"):
		return IntentFirewall
	case containsAny(lower, "backup", "veeam"):
		return IntentBackup
	case containsAny(lower, "preventivo", "costo", "prezzo"):
		return IntentPricing
	case containsAny(lower, "assistenza", "supporto"):
		return IntentSupport
	case containsAny(lower, "microsoft", "office"):
		return IntentMicrosoft
	default:
		return IntentGeneral
	}
}

func (r *Router) finish(resp *NormalizedResponse, sessionID string, elapsed time.Duration) {
	resp.Metadata.ResponseTimeMs = elapsed.Milliseconds()
	if r.perfQueue == nil {
		return
	}
	r.perfQueue.Enqueue(models.PerformanceRecord{
		SessionID:      sessionID,
		Mode:           string(resp.Arm),
		ResponseTimeMs: elapsed.Milliseconds(),
		Cost:           resp.Cost,
		Timestamp:      time.Now().UTC(),
	})
}

func (r *Router) storePerformance(ctx context.Context, rec models.PerformanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal performance record: %w", err)
	}
	key := cache.Key(cache.NamespacePerformance, rec.SessionID, strconv.FormatInt(rec.Timestamp.UnixMilli(), 10))
	if err := r.perfStore.Set(ctx, key, data, r.perfTTL); err != nil {
		return fmt.Errorf("failed to store performance record: %w", err)
	}
	return nil
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
