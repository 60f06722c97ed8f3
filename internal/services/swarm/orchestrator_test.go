package swarm_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	memcache "github.com/itera/chatbot-service/internal/infrastructure/cache/memory"
	"github.com/itera/chatbot-service/internal/services/swarm"
	"github.com/itera/chatbot-service/internal/testutil"
)

type failingAgent struct {
	agentType swarm.AgentType
}

func (f failingAgent) Type() swarm.AgentType { return f.agentType }

func (f failingAgent) Run(context.Context, swarm.Request) (*swarm.AgentResponse, error) {
	return nil, errors.New("agent unavailable")
}

type panickingAgent struct {
	agentType swarm.AgentType
}

func (p panickingAgent) Type() swarm.AgentType { return p.agentType }

func (p panickingAgent) Run(context.Context, swarm.Request) (*swarm.AgentResponse, error) {
	panic("boom")
}

func allFailing() []swarm.Agent {
	return []swarm.Agent{
		failingAgent{swarm.AgentLeadQualifier},
		failingAgent{swarm.AgentTechnicalAdvisor},
		failingAgent{swarm.AgentSalesAssistant},
		failingAgent{swarm.AgentSupportSpecialist},
		failingAgent{swarm.AgentMemoryKeeper},
	}
}

func TestAnalyzeIntent_Emergency(t *testing.T) {
	// Act
	a := swarm.AnalyzeIntent("Il nostro server non si avvia, è urgente!")

	// Assert
	assert.Equal(t, []string{swarm.IntentEmergencySupport}, a.Intents)
	assert.Equal(t, swarm.PriorityCritical, a.Priority)
	assert.True(t, a.Urgency)
}

func TestAnalyzeIntent_CompanyAndTechnical(t *testing.T) {
	// Act
	a := swarm.AnalyzeIntent("Siamo una PMI con 50 dipendenti a Monza, serve firewall e backup")

	// Assert
	assert.Equal(t, []string{swarm.IntentLeadQualification, swarm.IntentTechnicalConsultation}, a.Intents)
	assert.Equal(t, 30+20+30+25, a.LeadScore)
	assert.Equal(t, swarm.PriorityHigh, a.Priority)
	assert.Equal(t, swarm.ComplexityHigh, a.Complexity)
	assert.InDelta(t, 5000+2000+1500, a.EstimatedValue, 0.001)
	assert.Equal(t, 50, a.CompanySize)
}

func TestAnalyzeIntent_NoKeywords(t *testing.T) {
	a := swarm.AnalyzeIntent("Buongiorno")

	assert.Equal(t, []string{swarm.IntentGeneralInquiry}, a.Intents)
	assert.Equal(t, swarm.PriorityMedium, a.Priority)
	assert.Equal(t, swarm.ComplexityLow, a.Complexity)
}

func TestAnalyzeIntent_BackupKeepsHighComplexity(t *testing.T) {
	a := swarm.AnalyzeIntent("firewall e disaster recovery")

	assert.Equal(t, swarm.ComplexityHigh, a.Complexity)
	assert.Equal(t, []string{swarm.IntentTechnicalConsultation}, a.Intents)
}

func TestProcessMessage_EmergencyScenario(t *testing.T) {
	// Arrange
	o := swarm.NewOrchestrator(nil)

	// Act
	result := o.ProcessMessage(context.Background(), "sess-1", "Il nostro server non si avvia, è urgente!", swarm.ConversationContext{})

	// Assert
	require.NotNil(t, result)
	assert.Equal(t, 95, result.Metadata.ConsensusScore)
	assert.Contains(t, result.Response, swarm.ContactPhone)
	assert.Contains(t, result.Options, "🚨 Chiamata urgente")
	assert.Equal(t, 2, result.Metadata.AgentsUsed)
	assert.InDelta(t, 0.01, result.Cost, 1e-9)
	assert.False(t, result.Metadata.Fallback)
	assert.Equal(t, swarm.IntentEmergencySupport, result.Intent)
	assert.Contains(t, result.NextSteps, "emergency_call")
}

func TestProcessMessage_QualifiedLeadScenario(t *testing.T) {
	// Arrange
	o := swarm.NewOrchestrator(nil)

	// Act
	result := o.ProcessMessage(context.Background(), "sess-2", "Siamo una PMI con 50 dipendenti a Monza, serve firewall e backup", swarm.ConversationContext{})

	// Assert
	require.NotNil(t, result)
	assert.Equal(t, 90, result.Metadata.ConsensusScore)
	assert.Equal(t, "qualified_lead", result.Metadata.Rule)
	assert.Contains(t, result.Response, "50 persone")
	assert.Contains(t, result.Response, "Monza")
	assert.Contains(t, result.Response, "WatchGuard T70")
	assert.Equal(t, 3, result.Metadata.AgentsUsed)
	assert.Len(t, result.Options, 4)
	assert.Contains(t, result.NextSteps, "sales_contact")
}

func TestProcessMessage_GeneralWelcome(t *testing.T) {
	o := swarm.NewOrchestrator(nil)

	result := o.ProcessMessage(context.Background(), "sess-3", "Ciao", swarm.ConversationContext{})

	assert.Equal(t, 70, result.Metadata.ConsensusScore)
	assert.Equal(t, swarm.WelcomeMessage, result.Response)
	assert.Equal(t, swarm.DefaultOptions, result.Options)
	assert.Equal(t, 1, result.Metadata.AgentsUsed)
}

func TestProcessMessage_AllAgentsFail(t *testing.T) {
	// Arrange
	o := swarm.NewOrchestrator(&swarm.Config{Agents: allFailing()})

	// Act
	result := o.ProcessMessage(context.Background(), "sess-4", "Emergenza! server down, serve preventivo firewall per 30 dipendenti", swarm.ConversationContext{})

	// Assert
	require.NotNil(t, result)
	assert.True(t, result.Metadata.Fallback)
	assert.Equal(t, swarm.WelcomeMessage, result.Response)
	assert.NotEmpty(t, result.Options)
	assert.Equal(t, int64(1), o.Stats().Fallbacks)
}

func TestProcessMessage_PanickingAgentIsIsolated(t *testing.T) {
	// Arrange
	o := swarm.NewOrchestrator(&swarm.Config{
		Agents: []swarm.Agent{panickingAgent{swarm.AgentMemoryKeeper}},
	})

	// Act
	result := o.ProcessMessage(context.Background(), "sess-5", "è urgente", swarm.ConversationContext{})

	// Assert
	assert.False(t, result.Metadata.Fallback)
	assert.Equal(t, 95, result.Metadata.ConsensusScore)
	assert.Equal(t, 1, result.Metadata.AgentsUsed)
}

func TestProcessMessage_SlowTurnIsCounted(t *testing.T) {
	o := swarm.NewOrchestrator(&swarm.Config{ResponseTimeTarget: time.Nanosecond})

	o.ProcessMessage(context.Background(), "sess-6", "Ciao", swarm.ConversationContext{})

	stats := o.Stats()
	assert.Equal(t, int64(1), stats.Turns)
	assert.Equal(t, int64(1), stats.SlowTurns)
}

func TestBuildConsensus_RuleOrder(t *testing.T) {
	tests := []struct {
		name      string
		responses swarm.Responses
		wantRule  string
		wantScore int
	}{
		{
			name: "emergency beats hot lead",
			responses: swarm.Responses{
				swarm.AgentSupportSpecialist: {Agent: swarm.AgentSupportSpecialist, Support: &swarm.SupportPlan{Priority: swarm.PriorityCritical}},
				swarm.AgentLeadQualifier:     {Agent: swarm.AgentLeadQualifier, Lead: &swarm.LeadData{Qualification: swarm.QualificationHot}},
			},
			wantRule:  "emergency",
			wantScore: 95,
		},
		{
			name: "technical beats pricing",
			responses: swarm.Responses{
				swarm.AgentTechnicalAdvisor: {Agent: swarm.AgentTechnicalAdvisor, Technical: &swarm.TechnicalAdvice{Recommendations: []swarm.Recommendation{{Product: "WatchGuard T40"}}}},
				swarm.AgentSalesAssistant:   {Agent: swarm.AgentSalesAssistant, Sales: &swarm.SalesQuote{Total: 1500}},
			},
			wantRule:  "technical",
			wantScore: 85,
		},
		{
			name: "pricing",
			responses: swarm.Responses{
				swarm.AgentSalesAssistant: {Agent: swarm.AgentSalesAssistant, Sales: &swarm.SalesQuote{
					Items: []swarm.QuoteItem{{Description: "Servizi IT professionali", Price: 1500}},
					Total: 1500,
				}},
			},
			wantRule:  "pricing",
			wantScore: 80,
		},
		{
			name: "warm lead falls through to general",
			responses: swarm.Responses{
				swarm.AgentLeadQualifier: {Agent: swarm.AgentLeadQualifier, Lead: &swarm.LeadData{Qualification: swarm.QualificationWarm}},
			},
			wantRule:  "general",
			wantScore: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := swarm.BuildConsensus(tt.responses)

			assert.Equal(t, tt.wantRule, c.Rule)
			assert.Equal(t, tt.wantScore, c.Score)
			assert.InDelta(t, swarm.CostPerAgent*float64(len(tt.responses)), c.Cost, 1e-9)
		})
	}
}

func TestGenerateOptions_CappedAtFive(t *testing.T) {
	responses := swarm.Responses{
		swarm.AgentLeadQualifier:     {Lead: &swarm.LeadData{Qualification: swarm.QualificationHot}},
		swarm.AgentTechnicalAdvisor:  {Technical: &swarm.TechnicalAdvice{Recommendations: []swarm.Recommendation{{}}}},
		swarm.AgentSupportSpecialist: {Support: &swarm.SupportPlan{Priority: swarm.PriorityCritical}},
	}

	options := swarm.GenerateOptions(responses)

	assert.Len(t, options, swarm.MaxOptions)
	assert.Equal(t, "🚨 Chiamata urgente", options[4])
}

func TestSalesAssistant_Discounts(t *testing.T) {
	// Arrange
	req := swarm.Request{
		Message:  "preventivo firewall",
		Analysis: swarm.Analysis{EstimatedValue: 5000, Complexity: swarm.ComplexityHigh},
	}

	// Act
	resp, err := swarm.SalesAssistant{}.Run(context.Background(), req)

	// Assert
	require.NoError(t, err)
	q := resp.Sales
	assert.InDelta(t, 6000, q.Subtotal, 0.001)
	assert.InDelta(t, 600, q.Discount, 0.001)
	assert.InDelta(t, 5400, q.Total, 0.001)
	assert.Equal(t, "Sopralluogo gratuito incluso", q.SpecialOffer)
	assert.Len(t, q.Upsells, 2)
}

func TestTechnicalAdvisor_SizesFirewall(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"firewall per l'ufficio", "WatchGuard T40"},
		{"firewall per 40 pc", "WatchGuard T70"},
		{"watchguard per 120 postazioni", "WatchGuard M470"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			resp, err := swarm.TechnicalAdvisor{}.Run(context.Background(), swarm.Request{Message: tt.message})

			require.NoError(t, err)
			require.Len(t, resp.Technical.Recommendations, 1)
			assert.Equal(t, tt.want, resp.Technical.Recommendations[0].Product)
		})
	}
}

func TestLeadQualifier_Qualification(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"azienda di 30 persone a Vimercate", swarm.QualificationHot},
		{"azienda di 10 persone a Vimercate", swarm.QualificationWarm},
		{"siamo 5 persone", swarm.QualificationCold},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			resp, err := swarm.LeadQualifier{}.Run(context.Background(), swarm.Request{Message: tt.message})

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Lead.Qualification)
			assert.Equal(t, tt.want != swarm.QualificationCold, resp.Lead.Notify)
		})
	}
}

func TestMemoryKeeper_PersistsProfile(t *testing.T) {
	// Arrange
	store := memcache.NewCache(time.Hour)
	keeper := swarm.NewMemoryKeeper(store, 0)
	req := swarm.Request{
		SessionID: "sess-7",
		Message:   "La nostra azienda cerca assistenza",
		Analysis:  swarm.AnalyzeIntent("La nostra azienda cerca assistenza"),
	}

	// Act
	_, err := keeper.Run(context.Background(), req)
	require.NoError(t, err)
	resp, err := keeper.Run(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Memory.Interactions)
	assert.Equal(t, "business", resp.Memory.Type)

	raw, err := store.Get(context.Background(), "profile_sess-7")
	require.NoError(t, err)
	var stored swarm.CustomerProfile
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, 2, stored.Interactions)
}

func TestMemoryKeeper_StoreErrorFailsAgent(t *testing.T) {
	// Arrange
	store := new(testutil.MockCacheClient)
	store.On("Get", mock.Anything, "profile_sess-8").Return(nil, errors.New("connection refused"))
	keeper := swarm.NewMemoryKeeper(store, time.Hour)

	// Act
	resp, err := keeper.Run(context.Background(), swarm.Request{SessionID: "sess-8", Message: "ciao"})

	// Assert
	assert.Error(t, err)
	assert.Nil(t, resp)
	store.AssertExpectations(t)
}
