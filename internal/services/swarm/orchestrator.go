// Package swarm fans a message out to specialized agents and blends their outputs
// into one consensus reply.
package swarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itera/chatbot-service/internal/core/cache"
)

// Orchestrator defaults.
const (
	DefaultCostLimit          = 0.04
	DefaultResponseTimeTarget = 1600 * time.Millisecond
)

// ConversationContext is the session state passed to the agents.
type ConversationContext struct {
	Step     string
	LeadData map[string]string
}

// Metadata describes how a result was produced.
type Metadata struct {
	AgentsUsed     int           `json:"agentsUsed"`
	ConsensusScore int           `json:"consensusScore"`
	Cost           float64       `json:"cost"`
	Fallback       bool          `json:"fallback,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Rule           string        `json:"rule,omitempty"`
	Priority       string        `json:"priority,omitempty"`
	ProcessingTime time.Duration `json:"processingTime"`
}

// Result is the swarm reply for one turn.
type Result struct {
	Response  string   `json:"response"`
	Options   []string `json:"options"`
	Intent    string   `json:"intent"`
	LeadScore int      `json:"leadScore"`
	NextSteps []string `json:"nextSteps"`
	Metadata  Metadata `json:"metadata"`
	Cost      float64  `json:"cost"`
}

// Config holds the configuration for the orchestrator.
type Config struct {
	// Profiles backs the memory keeper. Nil disables profile persistence.
	Profiles           cache.Client
	ProfileTTL         time.Duration
	CostLimit          float64
	ResponseTimeTarget time.Duration
	// Agents replaces the built-in agent of the same type.
	Agents []Agent
}

// Orchestrator runs the analysis, fan-out and consensus pipeline.
type Orchestrator struct {
	agents             map[AgentType]Agent
	costLimit          float64
	responseTimeTarget time.Duration
	stats              *monitor
}

// NewOrchestrator creates a new orchestrator with the built-in agents.
func NewOrchestrator(cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = &Config{}
	}

	agents := map[AgentType]Agent{
		AgentLeadQualifier:     LeadQualifier{},
		AgentTechnicalAdvisor:  TechnicalAdvisor{},
		AgentSalesAssistant:    SalesAssistant{},
		AgentSupportSpecialist: SupportSpecialist{},
		AgentMemoryKeeper:      NewMemoryKeeper(cfg.Profiles, cfg.ProfileTTL),
	}
	for _, a := range cfg.Agents {
		agents[a.Type()] = a
	}

	costLimit := cfg.CostLimit
	if costLimit <= 0 {
		costLimit = DefaultCostLimit
	}
	target := cfg.ResponseTimeTarget
	if target <= 0 {
		target = DefaultResponseTimeTarget
	}

	return &Orchestrator{
		agents:             agents,
		costLimit:          costLimit,
		responseTimeTarget: target,
		stats:              &monitor{},
	}
}

// ProcessMessage never panics and never returns nil. Any internal failure, or every
// invoked agent failing, yields the welcome fallback with Metadata.Fallback set.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, message string, cc ConversationContext) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session_id", sessionID).Msg("swarm orchestration panicked")
			result = o.fallback("swarm_error", time.Since(start))
		}
	}()

	analysis := AnalyzeIntent(message)
	req := Request{SessionID: sessionID, Message: message, Analysis: analysis, Context: cc}

	invoked := o.selectAgents(analysis)
	responses, failed := o.distribute(ctx, invoked, req)
	if len(responses) == 0 {
		log.Warn().Int("failed", failed).Str("session_id", sessionID).Msg("every swarm agent failed")
		return o.fallback("all_agents_failed", time.Since(start))
	}

	consensus := BuildConsensus(responses)
	elapsed := time.Since(start)
	o.observe(sessionID, analysis, consensus, elapsed)

	return &Result{
		Response:  consensus.Response,
		Options:   consensus.Options,
		Intent:    analysis.PrimaryIntent(),
		LeadScore: analysis.LeadScore,
		NextSteps: nextSteps(responses),
		Cost:      consensus.Cost,
		Metadata: Metadata{
			AgentsUsed:     len(responses),
			ConsensusScore: consensus.Score,
			Cost:           consensus.Cost,
			Rule:           consensus.Rule,
			Priority:       analysis.Priority,
			ProcessingTime: elapsed,
		},
	}
}

// Stats returns the monitoring counters.
func (o *Orchestrator) Stats() Stats {
	return o.stats.snapshot()
}

func (o *Orchestrator) selectAgents(a Analysis) []Agent {
	types := make([]AgentType, 0, 5)
	if a.Has(IntentLeadQualification) {
		types = append(types, AgentLeadQualifier)
	}
	if a.Has(IntentTechnicalConsultation) {
		types = append(types, AgentTechnicalAdvisor)
	}
	if a.Has(IntentPricingInquiry) {
		types = append(types, AgentSalesAssistant)
	}
	if a.Has(IntentEmergencySupport) || a.Has(IntentSupportRequest) {
		types = append(types, AgentSupportSpecialist)
	}
	types = append(types, AgentMemoryKeeper)

	agents := make([]Agent, 0, len(types))
	for _, t := range types {
		if agent, ok := o.agents[t]; ok {
			agents = append(agents, agent)
		}
	}
	return agents
}

type agentOutcome struct {
	agent AgentType
	resp  *AgentResponse
	err   error
}

// distribute runs every agent concurrently and waits for all of them.
func (o *Orchestrator) distribute(ctx context.Context, agents []Agent, req Request) (Responses, int) {
	outcomes := make([]agentOutcome, len(agents))

	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent Agent) {
			defer wg.Done()
			outcomes[i] = runAgent(ctx, agent, req)
		}(i, agent)
	}
	wg.Wait()

	responses := make(Responses, len(agents))
	failed := 0
	for _, out := range outcomes {
		if out.err != nil {
			failed++
			log.Warn().Err(out.err).Str("agent", string(out.agent)).Str("session_id", req.SessionID).Msg("swarm agent failed")
			continue
		}
		responses[out.agent] = out.resp
	}
	return responses, failed
}

func runAgent(ctx context.Context, agent Agent, req Request) (out agentOutcome) {
	out.agent = agent.Type()
	defer func() {
		if r := recover(); r != nil {
			out.resp = nil
			out.err = fmt.Errorf("agent panicked: %v", r)
		}
	}()

	resp, err := agent.Run(ctx, req)
	if err != nil {
		out.err = err
		return out
	}
	if resp == nil {
		out.err = fmt.Errorf("agent returned no response")
		return out
	}
	out.resp = resp
	return out
}

func (o *Orchestrator) fallback(reason string, elapsed time.Duration) *Result {
	o.stats.recordFallback()
	return &Result{
		Response:  WelcomeMessage,
		Options:   append([]string(nil), DefaultOptions...),
		Intent:    IntentGeneralInquiry,
		NextSteps: []string{},
		Metadata: Metadata{
			Fallback:       true,
			Reason:         reason,
			ProcessingTime: elapsed,
		},
	}
}

func nextSteps(r Responses) []string {
	steps := []string{}
	if s := r.support(); s != nil && s.Escalation {
		steps = append(steps, "emergency_call")
	}
	if l := r.lead(); l != nil && l.Recommendation == "immediate_contact" {
		steps = append(steps, "sales_contact")
	}
	if t := r.technical(); t != nil && len(t.Recommendations) > 0 {
		steps = append(steps, "technical_consultation")
	}
	if s := r.sales(); s != nil && s.Total > 0 {
		steps = append(steps, "send_quote")
	}
	return steps
}
