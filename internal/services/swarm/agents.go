package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/itera/chatbot-service/internal/core/cache"
)

// AgentType identifies a specialized agent.
type AgentType string

const (
	AgentLeadQualifier     AgentType = "leadQualifier"
	AgentTechnicalAdvisor  AgentType = "technicalAdvisor"
	AgentSalesAssistant    AgentType = "salesAssistant"
	AgentSupportSpecialist AgentType = "supportSpecialist"
	AgentMemoryKeeper      AgentType = "memoryKeeper"
)

// Company contact details quoted by the agents.
const (
	ContactPhone = "039 888 2041"
	ContactEmail = "info@it-era.it"
)

// Lead qualifications.
const (
	QualificationHot  = "hot"
	QualificationWarm = "warm"
	QualificationCold = "cold"
)

// DefaultProfileTTL is how long a customer profile is remembered.
const DefaultProfileTTL = 30 * 24 * time.Hour

// Request is the input every agent receives for a turn.
type Request struct {
	SessionID string
	Message   string
	Analysis  Analysis
	Context   ConversationContext
}

func (r Request) lower() string {
	return strings.ToLower(r.Message)
}

// Agent is one specialized participant of the swarm.
type Agent interface {
	Type() AgentType
	Run(ctx context.Context, req Request) (*AgentResponse, error)
}

// AgentResponse carries the payload of exactly one agent.
type AgentResponse struct {
	Agent     AgentType        `json:"agentType"`
	Lead      *LeadData        `json:"leadData,omitempty"`
	Technical *TechnicalAdvice `json:"technical,omitempty"`
	Sales     *SalesQuote      `json:"sales,omitempty"`
	Support   *SupportPlan     `json:"support,omitempty"`
	Memory    *CustomerProfile `json:"memory,omitempty"`
}

// LeadData is the lead qualifier output.
type LeadData struct {
	Score          int      `json:"score"`
	CompanySize    int      `json:"companySize,omitempty"`
	Location       string   `json:"location,omitempty"`
	Needs          []string `json:"needs"`
	Qualification  string   `json:"qualification"`
	Recommendation string   `json:"recommendation"`
	Notify         bool     `json:"teamsNotification"`
}

// Recommendation is one product suggested by the technical advisor.
type Recommendation struct {
	Product     string   `json:"product"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Features    []string `json:"features"`
}

// TechnicalAdvice is the technical advisor output.
type TechnicalAdvice struct {
	Recommendations     []Recommendation `json:"recommendations"`
	Expertise           string           `json:"expertise"`
	ConsultationOffered bool             `json:"consultationOffered"`
}

// QuoteItem is a priced line of a sales quote.
type QuoteItem struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// SalesQuote is the sales assistant output.
type SalesQuote struct {
	Items        []QuoteItem `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	Discount     float64     `json:"discount"`
	Total        float64     `json:"total"`
	Validity     string      `json:"validity"`
	PaymentTerms string      `json:"paymentTerms"`
	Upsells      []string    `json:"upsells"`
	SpecialOffer string      `json:"specialOffer,omitempty"`
}

// SupportPlan is the support specialist output.
type SupportPlan struct {
	Priority         string   `json:"priority"`
	ResponseTime     string   `json:"estimatedResponseTime"`
	TicketType       string   `json:"ticketType"`
	ImmediateActions []string `json:"immediateActions"`
	Escalation       bool     `json:"escalation"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
}

// CustomerProfile is the memory keeper output and its stored document.
type CustomerProfile struct {
	Type            string   `json:"type,omitempty"`
	Interactions    int      `json:"interactions"`
	LastInteraction int64    `json:"lastInteraction,omitempty"`
	Patterns        []string `json:"patterns,omitempty"`
}

// maxProfilePatterns bounds the intents remembered per profile.
const maxProfilePatterns = 10

// LeadQualifier scores company size, location and needs.
type LeadQualifier struct{}

func (LeadQualifier) Type() AgentType { return AgentLeadQualifier }

func (LeadQualifier) Run(_ context.Context, req Request) (*AgentResponse, error) {
	msg := req.lower()
	lead := &LeadData{Needs: []string{}}

	if size := CompanySize(msg); size > 0 {
		lead.CompanySize = size
		if size >= 20 {
			lead.Score += 30
		} else {
			lead.Score += 15
		}
	}

	for _, loc := range leadLocations {
		if strings.Contains(msg, loc.keyword) {
			lead.Location = loc.name
			lead.Score += loc.points
			break
		}
	}

	if containsAny(msg, "firewall", "sicurezza") {
		lead.Needs = append(lead.Needs, "security")
	}
	if strings.Contains(msg, "backup") {
		lead.Needs = append(lead.Needs, "backup")
	}
	if strings.Contains(msg, "assistenza") {
		lead.Needs = append(lead.Needs, "support")
	}
	if strings.Contains(msg, "cloud") {
		lead.Needs = append(lead.Needs, "cloud")
	}

	switch {
	case lead.Score >= 60:
		lead.Qualification = QualificationHot
	case lead.Score >= 40:
		lead.Qualification = QualificationWarm
	default:
		lead.Qualification = QualificationCold
	}
	if lead.Qualification == QualificationHot {
		lead.Recommendation = "immediate_contact"
	} else {
		lead.Recommendation = "nurture"
	}
	lead.Notify = lead.Qualification != QualificationCold

	return &AgentResponse{Agent: AgentLeadQualifier, Lead: lead}, nil
}

var leadLocations = []struct {
	keyword string
	name    string
	points  int
}{
	{"monza", "Monza", 30},
	{"vimercate", "Vimercate", 35},
	{"brianza", "Brianza", 25},
	{"milano", "Milano", 20},
}

// TechnicalAdvisor recommends firewall and backup products.
type TechnicalAdvisor struct{}

func (TechnicalAdvisor) Type() AgentType { return AgentTechnicalAdvisor }

func (TechnicalAdvisor) Run(_ context.Context, req Request) (*AgentResponse, error) {
	msg := req.lower()
	advice := &TechnicalAdvice{
		Recommendations:     []Recommendation{},
		Expertise:           "WatchGuard Certified Partner",
		ConsultationOffered: true,
	}

	if containsAny(msg, "firewall", "watchguard") {
		size := CompanySize(msg)
		if size == 0 {
			size = 20
		}
		advice.Recommendations = append(advice.Recommendations, firewallFor(size))
	}

	if strings.Contains(msg, "backup") {
		advice.Recommendations = append(advice.Recommendations, Recommendation{
			Product:     "Veeam Backup Suite",
			Description: "Soluzione completa di backup e disaster recovery",
			Price:       "€50-150/mese per workstation",
			Features:    []string{"Backup automatico", "Recovery rapido", "Cloud storage opzionale"},
		})
	}

	return &AgentResponse{Agent: AgentTechnicalAdvisor, Technical: advice}, nil
}

func firewallFor(users int) Recommendation {
	switch {
	case users <= 25:
		return Recommendation{
			Product:     "WatchGuard T40",
			Description: "Firewall ideale per piccole imprese fino a 25 utenti",
			Price:       "€1.500 - €2.000",
			Features:    []string{"Protezione avanzata", "VPN inclusa", "Gestione cloud"},
		}
	case users <= 50:
		return Recommendation{
			Product:     "WatchGuard T70",
			Description: "Soluzione robusta per medie imprese fino a 50 utenti",
			Price:       "€2.500 - €3.500",
			Features:    []string{"High performance", "Multi-WAN", "Advanced threat protection"},
		}
	default:
		return Recommendation{
			Product:     "WatchGuard M470",
			Description: "Enterprise-grade per oltre 50 utenti",
			Price:       "€4.000+",
			Features:    []string{"Scalabilità enterprise", "Clustering", "Full UTM suite"},
		}
	}
}

// SalesAssistant prices the estimated value of the request.
type SalesAssistant struct{}

func (SalesAssistant) Type() AgentType { return AgentSalesAssistant }

func (SalesAssistant) Run(_ context.Context, req Request) (*AgentResponse, error) {
	msg := req.lower()
	quote := &SalesQuote{
		Items:        []QuoteItem{},
		Upsells:      []string{},
		Validity:     "30 giorni",
		PaymentTerms: "Net 30",
	}

	if v := req.Analysis.EstimatedValue; v > 0 {
		if req.Analysis.Complexity == ComplexityHigh {
			quote.Items = append(quote.Items, QuoteItem{Description: "Soluzione di sicurezza enterprise", Price: v * 1.2})
		} else {
			quote.Items = append(quote.Items, QuoteItem{Description: "Servizi IT professionali", Price: v})
		}
	}

	for _, item := range quote.Items {
		quote.Subtotal += item.Price
	}
	switch {
	case quote.Subtotal > 5000:
		quote.Discount = quote.Subtotal * 0.10
	case quote.Subtotal > 2000:
		quote.Discount = quote.Subtotal * 0.05
	}
	quote.Total = quote.Subtotal - quote.Discount

	if !strings.Contains(msg, "backup") {
		quote.Upsells = append(quote.Upsells, "Backup solution (+€50/mese)")
	}
	if !strings.Contains(msg, "monitoring") {
		quote.Upsells = append(quote.Upsells, "24/7 Monitoring (+€100/mese)")
	}
	if quote.Total > 3000 {
		quote.SpecialOffer = "Sopralluogo gratuito incluso"
	}

	return &AgentResponse{Agent: AgentSalesAssistant, Sales: quote}, nil
}

// SupportSpecialist triages support and emergency requests.
type SupportSpecialist struct{}

func (SupportSpecialist) Type() AgentType { return AgentSupportSpecialist }

func (SupportSpecialist) Run(_ context.Context, req Request) (*AgentResponse, error) {
	msg := req.lower()
	plan := &SupportPlan{
		Priority:         "normal",
		ResponseTime:     "4 ore",
		TicketType:       "general",
		ImmediateActions: []string{},
		Phone:            ContactPhone,
		Email:            ContactEmail,
	}

	switch {
	case containsAny(msg, "emergenza", "urgente", "down"):
		plan.Priority = PriorityCritical
		plan.ResponseTime = "Immediato"
		plan.TicketType = "emergency"
		plan.Escalation = true
		plan.ImmediateActions = []string{
			"Chiamare immediatamente: " + ContactPhone,
			"Preparare accesso remoto se disponibile",
			"Documentare il problema dettagliatamente",
		}
	case containsAny(msg, "lento", "problema"):
		plan.Priority = PriorityHigh
		plan.ResponseTime = "2 ore"
		plan.TicketType = "performance"
	}

	return &AgentResponse{Agent: AgentSupportSpecialist, Support: plan}, nil
}

// MemoryKeeper loads and updates the customer profile of the session.
type MemoryKeeper struct {
	store cache.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryKeeper creates a memory keeper backed by store.
func NewMemoryKeeper(store cache.Client, ttl time.Duration) *MemoryKeeper {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &MemoryKeeper{store: store, ttl: ttl, now: time.Now}
}

func (m *MemoryKeeper) Type() AgentType { return AgentMemoryKeeper }

func (m *MemoryKeeper) Run(ctx context.Context, req Request) (*AgentResponse, error) {
	profile := &CustomerProfile{}
	if m.store == nil || req.SessionID == "" {
		return &AgentResponse{Agent: AgentMemoryKeeper, Memory: profile}, nil
	}

	key := profileKey(req.SessionID)
	data, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer profile: %w", err)
	}
	if data != nil {
		if err := json.Unmarshal(data, profile); err != nil {
			return nil, fmt.Errorf("failed to decode customer profile: %w", err)
		}
	}

	if containsAny(req.lower(), "azienda", "persone") {
		profile.Type = "business"
	}
	profile.Interactions++
	profile.LastInteraction = m.now().UnixMilli()
	profile.Patterns = append(profile.Patterns, req.Analysis.PrimaryIntent())
	if len(profile.Patterns) > maxProfilePatterns {
		profile.Patterns = profile.Patterns[len(profile.Patterns)-maxProfilePatterns:]
	}

	out, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode customer profile: %w", err)
	}
	if err := m.store.Set(ctx, key, out, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to store customer profile: %w", err)
	}

	return &AgentResponse{Agent: AgentMemoryKeeper, Memory: profile}, nil
}

func profileKey(sessionID string) string {
	return cache.Key(cache.NamespaceProfile, sessionID)
}
