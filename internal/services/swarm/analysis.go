package swarm

import (
	"regexp"
	"strconv"
	"strings"
)

// Analysis intents.
const (
	IntentLeadQualification     = "lead_qualification"
	IntentTechnicalConsultation = "technical_consultation"
	IntentPricingInquiry        = "pricing_inquiry"
	IntentEmergencySupport      = "emergency_support"
	IntentSupportRequest        = "support_request"
	IntentGeneralInquiry        = "general_inquiry"
)

// Priority levels.
const (
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Complexity levels.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

var headcountPattern = regexp.MustCompile(`(\d+)\s*(persone|dipendenti|pc|postazioni)`)

// Analysis is the keyword pre-analysis that decides which agents run.
type Analysis struct {
	Intents        []string `json:"intents"`
	Priority       string   `json:"priority"`
	Urgency        bool     `json:"urgency"`
	LeadScore      int      `json:"leadScore"`
	Complexity     string   `json:"complexity"`
	EstimatedValue float64  `json:"estimatedValue"`
	CompanySize    int      `json:"companySize,omitempty"`
}

// PrimaryIntent returns the first detected intent.
func (a Analysis) PrimaryIntent() string {
	if len(a.Intents) == 0 {
		return IntentGeneralInquiry
	}
	return a.Intents[0]
}

// Has reports whether intent was detected.
func (a Analysis) Has(intent string) bool {
	for _, i := range a.Intents {
		if i == intent {
			return true
		}
	}
	return false
}

// AnalyzeIntent scores the message by keyword families.
func AnalyzeIntent(message string) Analysis {
	msg := strings.ToLower(message)
	a := Analysis{
		Priority:   PriorityMedium,
		Complexity: ComplexityLow,
	}

	if containsAny(msg, "azienda", "persone", "dipendenti") {
		a.add(IntentLeadQualification)
		a.LeadScore += 30
	}

	if size := CompanySize(msg); size > 0 {
		a.CompanySize = size
		if size >= 20 {
			a.LeadScore += 20
		}
		if size >= 50 {
			a.LeadScore += 30
		}
		a.EstimatedValue += float64(size) * 100
	}

	if containsAny(msg, "monza", "vimercate", "brianza") {
		a.LeadScore += 25
		a.raisePriority(PriorityHigh)
	}

	if containsAny(msg, "firewall", "watchguard", "sicurezza") {
		a.add(IntentTechnicalConsultation)
		a.Complexity = ComplexityHigh
		a.EstimatedValue += 2000
	}

	if containsAny(msg, "backup", "disaster recovery") {
		a.add(IntentTechnicalConsultation)
		if a.Complexity == ComplexityLow {
			a.Complexity = ComplexityMedium
		}
		a.EstimatedValue += 1500
	}

	if containsAny(msg, "preventivo", "costo", "prezzo") {
		a.add(IntentPricingInquiry)
		a.raisePriority(PriorityHigh)
	}

	if containsAny(msg, "emergenza", "urgente", "down") {
		a.add(IntentEmergencySupport)
		a.Urgency = true
		a.raisePriority(PriorityCritical)
	}

	if containsAny(msg, "assistenza", "supporto", "aiuto") {
		a.add(IntentSupportRequest)
	}

	if len(a.Intents) == 0 {
		a.Intents = []string{IntentGeneralInquiry}
	}
	return a
}

// CompanySize extracts a headcount such as "50 dipendenti". Zero when absent.
func CompanySize(lowerMessage string) int {
	m := headcountPattern.FindStringSubmatch(lowerMessage)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func (a *Analysis) add(intent string) {
	if !a.Has(intent) {
		a.Intents = append(a.Intents, intent)
	}
}

func (a *Analysis) raisePriority(p string) {
	if priorityRank[p] > priorityRank[a.Priority] {
		a.Priority = p
	}
}

var priorityRank = map[string]int{
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
