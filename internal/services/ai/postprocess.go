package ai

import "strings"

// Refined intents extracted from the generated text.
const (
	IntentPreventivo    = "preventivo"
	IntentSupporto      = "supporto"
	IntentSitoWeb       = "sito_web"
	IntentEcommerce     = "ecommerce"
	IntentAppMobile     = "app_mobile"
	IntentServer        = "server"
	IntentCybersecurity = "cybersecurity"
	IntentSaluto        = "saluto"
	IntentServizioInfo  = "servizio_info"
	IntentLeadQualified = "lead_qualified"
	IntentGenerale      = "generale"
)

// Canned intents.
const (
	IntentRateLimit        = "rate_limit"
	IntentCostLimitReached = "cost_limit_reached"
	IntentAIError          = "ai_error"
)

// IsCannedIntent reports whether intent marks a guardrail or error reply
// rather than a classification of the visitor's message.
func IsCannedIntent(intent string) bool {
	switch intent {
	case IntentRateLimit, IntentCostLimitReached, IntentAIError:
		return true
	default:
		return false
	}
}

// Context steps that map to refined intents when the text has no keyword.
const (
	StepGreeting       = "greeting"
	StepServiceInquiry = "service_inquiry"
)

var escalationTriggers = []string{
	"umano", "persona", "operatore", "telefono", "chiamare",
	"complesso", "urgente", "subito", "problema grave",
}

var cacheableIntents = map[string]bool{
	IntentSaluto:       true,
	IntentServizioInfo: true,
	IntentGenerale:     true,
}

// MinCacheableLength is the shortest reply worth caching.
const MinCacheableLength = 20

var optionsByIntent = map[string][]string{
	IntentSaluto:        {"Preventivo", "Assistenza Tecnica", "Info Servizi", "Altro"},
	IntentPreventivo:    {"Sito Web", "E-commerce", "App Mobile", "Server/Cloud", "Cybersecurity", "Assistenza IT"},
	IntentSitoWeb:       {"Sito Vetrina", "Sito E-commerce", "Portale Aziendale", "Landing Page"},
	IntentEcommerce:     {"B2C Consumer", "B2B Aziendale", "Marketplace", "Dropshipping"},
	IntentGenerale:      {"Preventivo", "Assistenza", "Info Servizi"},
	IntentLeadQualified: {"Invia Preventivo", "Chiama Subito", "Email Dettagli"},
}

var nextStepByIntent = map[string]string{
	IntentSaluto:        "service_selection",
	IntentPreventivo:    "service_details",
	IntentSitoWeb:       "business_info",
	IntentEcommerce:     "business_info",
	IntentAppMobile:     "business_info",
	IntentLeadQualified: "escalation",
	IntentGenerale:      "clarification",
}

// extractIntent classifies the generated text, falling back to the conversation state.
func extractIntent(text string, cc ConversationContext) string {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "preventivo", "quotazione"):
		return IntentPreventivo
	case containsAny(lower, "assistenza", "supporto"):
		return IntentSupporto
	case strings.Contains(lower, "sito") && strings.Contains(lower, "web"):
		return IntentSitoWeb
	case containsAny(lower, "ecommerce", "e-commerce"):
		return IntentEcommerce
	case strings.Contains(lower, "app") && strings.Contains(lower, "mobile"):
		return IntentAppMobile
	case containsAny(lower, "server", "cloud"):
		return IntentServer
	case containsAny(lower, "sicurezza", "cybersecurity"):
		return IntentCybersecurity
	}

	switch {
	case cc.Step == StepGreeting:
		return IntentSaluto
	case cc.Step == StepServiceInquiry:
		return IntentServizioInfo
	case len(cc.LeadData) > 2:
		return IntentLeadQualified
	default:
		return IntentGenerale
	}
}

// shouldEscalate applies the trigger words to the generated text.
func shouldEscalate(text, intent string, cc ConversationContext) bool {
	if cc.EscalationRequested || intent == IntentLeadQualified {
		return true
	}
	return containsAny(strings.ToLower(text), escalationTriggers...)
}

// OptionsFor returns the quick replies for a refined intent.
func OptionsFor(intent string) []string {
	if opts, ok := optionsByIntent[intent]; ok {
		return append([]string(nil), opts...)
	}
	return append([]string(nil), optionsByIntent[IntentGenerale]...)
}

// NextStepFor returns the conversation step that follows a refined intent.
func NextStepFor(intent string) string {
	if step, ok := nextStepByIntent[intent]; ok {
		return step
	}
	return "continue"
}

func isCacheable(intent, text string) bool {
	return cacheableIntents[intent] && len(text) > MinCacheableLength
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
