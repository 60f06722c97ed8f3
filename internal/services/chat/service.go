// Package chat runs one visitor turn through the guardrails, the responders and
// the escalation sink, and persists the result.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/core/docdb"
	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/services/ai"
	"github.com/itera/chatbot-service/internal/services/guardrails"
	"github.com/itera/chatbot-service/internal/services/intent"
	"github.com/itera/chatbot-service/internal/services/leadscore"
	"github.com/itera/chatbot-service/internal/services/notify"
	"github.com/itera/chatbot-service/internal/services/routing"
	"github.com/itera/chatbot-service/internal/services/rules"
	"github.com/itera/chatbot-service/internal/services/session"
)

// Service defaults.
const (
	DefaultMaxMessages  = 25
	DefaultStoreTimeout = 8 * time.Second
)

var (
	// ErrRateLimited is returned when the client IP exceeded its hourly window.
	ErrRateLimited = errors.New("too many requests")
	// ErrEmptyMessage is returned for a message turn without text.
	ErrEmptyMessage = errors.New("message is required")
)

// MessageRouter routes a turn between the swarm and traditional arms.
type MessageRouter interface {
	ProcessMessage(ctx context.Context, sessionID, message string, session *models.Session) (*routing.NormalizedResponse, error)
}

// Reply is the outcome of one turn.
type Reply struct {
	SessionID  string      `json:"sessionId"`
	Response   string      `json:"response"`
	Options    []string    `json:"options"`
	Step       models.Step `json:"step,omitempty"`
	Intent     string      `json:"intent,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Escalate   bool        `json:"escalate"`
	Priority   string      `json:"priority,omitempty"`
	Source     string      `json:"source"`
	Cost       float64     `json:"cost"`
	Cached     bool        `json:"cached"`
	LeadScore  int         `json:"leadScore"`
	Arm        string      `json:"arm,omitempty"`
}

// UsedAI reports whether a model produced the reply.
func (r *Reply) UsedAI() bool {
	return r.Source != models.SourceFallback
}

// Config holds the configuration for the chat service.
type Config struct {
	Sessions session.Service
	// IPLimiter is optional; nil disables the per-IP window.
	IPLimiter *guardrails.RateLimiter
	// Router is nil when the swarm is disabled.
	Router MessageRouter
	// AI is nil when the AI engine is disabled.
	AI       routing.ResponseGenerator
	Notifier notify.Notifier
	// Conversations and Leads are optional archives.
	Conversations docdb.ConversationsCollection
	Leads         docdb.LeadsCollection
	MaxMessages   int
	StoreTimeout  time.Duration
}

// Service handles chat turns.
type Service struct {
	sessions      session.Service
	ipLimiter     *guardrails.RateLimiter
	router        MessageRouter
	ai            routing.ResponseGenerator
	notifier      notify.Notifier
	conversations docdb.ConversationsCollection
	leads         docdb.LeadsCollection
	maxMessages   int
	storeTimeout  time.Duration
}

// NewService creates a new chat service.
func NewService(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}

	s := &Service{
		sessions:      cfg.Sessions,
		ipLimiter:     cfg.IPLimiter,
		router:        cfg.Router,
		ai:            cfg.AI,
		notifier:      cfg.Notifier,
		conversations: cfg.Conversations,
		leads:         cfg.Leads,
		maxMessages:   cfg.MaxMessages,
		storeTimeout:  cfg.StoreTimeout,
	}
	if s.notifier == nil {
		s.notifier = notify.NoopNotifier{}
	}
	if s.maxMessages <= 0 {
		s.maxMessages = DefaultMaxMessages
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = DefaultStoreTimeout
	}
	return s, nil
}

// NewSessionID returns a new widget session id.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("chat_%d_%s", time.Now().UnixMilli(), suffix)
}

// Start opens (or reopens) a conversation and returns the welcome reply.
func (s *Service) Start(ctx context.Context, sessionID string) (*Reply, error) {
	sess := s.loadSession(ctx, sessionID)

	bot := models.NewBotMessage(welcome.Message, intent.General, welcome.Options, models.SourceFallback, 0)
	sess.AppendMessage(bot)
	sess.SetStep(welcome.NextStep)

	s.persist(ctx, sess, []models.Message{bot}, nil)

	return &Reply{
		SessionID: sess.ID,
		Response:  welcome.Message,
		Options:   welcome.Options,
		Step:      sess.Step,
		Intent:    intent.General,
		Source:    models.SourceFallback,
	}, nil
}

// HandleMessage runs one visitor turn. It returns ErrRateLimited or ErrEmptyMessage
// for rejected turns; otherwise it always produces a reply.
func (s *Service) HandleMessage(ctx context.Context, sessionID, clientIP, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if s.ipLimiter != nil && clientIP != "" && !s.ipLimiter.Allow(ctx, guardrails.ScopeIP, clientIP) {
		return nil, ErrRateLimited
	}

	sess := s.loadSession(ctx, sessionID)
	user := models.NewUserMessage(message)

	if sess.UserMessageCount() >= s.maxMessages {
		sess.AppendMessage(user)
		bot := models.NewBotMessage(HandoffMessage, intent.HumanRequest, handoffOptions, models.SourceFallback, 0)
		sess.AppendMessage(bot)
		sess.SetStep(models.StepEscalation)
		sess.Escalate("session_limit", "medium", "max_messages")
		s.persist(ctx, sess, []models.Message{user, bot}, nil)

		return &Reply{
			SessionID: sess.ID,
			Response:  HandoffMessage,
			Options:   handoffOptions,
			Step:      sess.Step,
			Intent:    intent.HumanRequest,
			Escalate:  true,
			Priority:  "medium",
			Source:    models.SourceFallback,
		}, nil
	}

	classification := intent.Classify(message)
	sess.Context.CurrentIntent = classification.Intent
	sess.AppendMessage(user)

	var reply *Reply
	if text, category, blocked := rules.CheckBlocked(message); blocked {
		log.Debug().Str("session_id", sess.ID).Str("category", category).Msg("message redirected by business rules")
		reply = &Reply{
			Response:  text,
			Options:   redirectOptions,
			Step:      models.StepContinue,
			Source:    models.SourceFallback,
			LeadScore: transcriptScore(sess),
		}
	} else {
		reply = s.respond(ctx, sess, message, classification)
	}
	reply.SessionID = sess.ID
	reply.Confidence = classification.Confidence
	if reply.Intent == "" {
		reply.Intent = classification.Intent
	}

	bot := models.NewBotMessage(reply.Response, reply.Intent, reply.Options, reply.Source, reply.Cost)
	sess.AppendMessage(bot)
	sess.SetStep(reply.Step)
	reply.Step = sess.Step

	var lead *models.LeadRecord
	if reply.Escalate || classification.Escalate {
		reply.Escalate = true
		if reply.Priority == "" {
			reply.Priority = priorityFor(classification.Intent)
		}
		first := sess.Escalation == nil
		sess.Escalate(escalationType(classification.Intent, reply.Intent), reply.Priority, reply.Intent)
		if first {
			lead = buildLead(sess, classification.Intent, message, reply)
			if err := s.notifier.Notify(ctx, notify.EscalationCard(lead)); err != nil {
				log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to queue escalation card")
			}
		}
	}

	s.persist(ctx, sess, []models.Message{user, bot}, lead, withArm(reply))

	return reply, nil
}

// respond tries the router, then the AI engine, then the static table.
func (s *Service) respond(ctx context.Context, sess *models.Session, message string, classification intent.Classification) *Reply {
	if s.router != nil {
		resp, err := s.router.ProcessMessage(ctx, sess.ID, message, sess)
		if err == nil {
			source := models.SourceAI
			if resp.Arm == routing.ArmSwarm {
				source = models.SourceSwarm
			}
			return &Reply{
				Response:  resp.Response,
				Options:   nonNil(resp.Options),
				Step:      models.Step(resp.NextStep),
				Intent:    resp.Intent,
				Escalate:  resp.Escalate,
				Source:    source,
				Cost:      resp.Cost,
				Cached:    resp.Metadata.Cached,
				LeadScore: resp.LeadScore,
				Arm:       string(resp.Arm),
			}
		}
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("router failed, using fallback reply")
	} else if s.ai != nil {
		resp, err := s.ai.Generate(ctx, message, ai.ConversationContext{
			Step:                string(sess.Step),
			History:             routing.HistoryFor(sess, message),
			LeadData:            sess.Context.LeadData,
			EscalationRequested: sess.Context.EscalationRequested,
		}, sess.ID)
		if err == nil {
			filtered := rules.FilterOrAugment(message, classification.Intent, resp.Message)
			return &Reply{
				Response:  filtered.Text,
				Options:   nonNil(resp.Options),
				Step:      models.Step(resp.NextStep),
				Intent:    resp.Intent,
				Escalate:  resp.Escalate,
				Source:    models.SourceAI,
				Cost:      resp.Cost,
				Cached:    resp.Cached,
				LeadScore: transcriptScore(sess),
			}
		}
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("AI unavailable, using fallback reply")
	}

	canned := fallbackFor(classification.Intent)
	return &Reply{
		Response:  canned.Message,
		Options:   canned.Options,
		Step:      canned.NextStep,
		Intent:    classification.Intent,
		Escalate:  canned.Escalate,
		Priority:  canned.Priority,
		Source:    models.SourceFallback,
		LeadScore: transcriptScore(sess),
	}
}

// loadSession returns the stored session, or a new one when absent or unreadable.
func (s *Service) loadSession(ctx context.Context, sessionID string) *models.Session {
	if sessionID == "" {
		return models.NewSession(NewSessionID())
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	sess, err := s.sessions.GetSession(storeCtx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to load session, starting a new one")
	}
	if sess == nil {
		return models.NewSession(sessionID)
	}
	return sess
}

type archiveOption func(msgs []*models.ConversationMessage)

func withArm(reply *Reply) archiveOption {
	return func(msgs []*models.ConversationMessage) {
		last := msgs[len(msgs)-1]
		last.Arm = reply.Arm
		last.LeadScore = reply.LeadScore
	}
}

// persist stores the session and archives the turn. Failures are logged, never returned.
func (s *Service) persist(ctx context.Context, sess *models.Session, turn []models.Message, lead *models.LeadRecord, opts ...archiveOption) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.sessions.SetSession(storeCtx, sess); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist session")
	}

	if s.conversations != nil && len(turn) > 0 {
		msgs := make([]*models.ConversationMessage, 0, len(turn))
		for _, m := range turn {
			msgs = append(msgs, models.NewConversationMessage(uuid.NewString(), sess.ID, m))
		}
		for _, opt := range opts {
			opt(msgs)
		}
		if err := s.conversations.AddMessages(storeCtx, msgs); err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to archive turn")
		}
	}

	if s.leads != nil && lead != nil {
		if err := s.leads.Create(storeCtx, lead); err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to archive lead")
		}
	}
}

func buildLead(sess *models.Session, classifierIntent, message string, reply *Reply) *models.LeadRecord {
	data := sess.Context.LeadData
	return &models.LeadRecord{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Name:      data["nome"],
		Email:     data["email"],
		Phone:     data["telefono"],
		Company:   data["azienda"],
		Zone:      data["zona"],
		Service:   classifierIntent,
		Priority:  reply.Priority,
		Intent:    classifierIntent,
		Message:   message,
		LeadScore: reply.LeadScore,
		Timestamp: time.Now().UTC(),
	}
}

func transcriptScore(sess *models.Session) int {
	transcript := sess.Transcript()
	return leadscore.Score(transcript, leadscore.Context{
		IsUrgent: strings.Contains(strings.ToLower(transcript), "urgente"),
	})
}

func priorityFor(classifierIntent string) string {
	switch classifierIntent {
	case intent.Emergency:
		return "critical"
	case intent.Pricing, intent.HumanRequest:
		return "high"
	default:
		return "medium"
	}
}

func escalationType(classifierIntent, replyIntent string) string {
	switch {
	case replyIntent == ai.IntentCostLimitReached:
		return "cost_limit"
	case classifierIntent == intent.Emergency:
		return "emergency"
	case classifierIntent == intent.Pricing:
		return "sales"
	case classifierIntent == intent.HumanRequest:
		return "user_request"
	default:
		return "ai_suggested"
	}
}

func nonNil(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}
