// Package intent maps visitor text to a coarse intent category.
package intent

import "strings"

// Intent labels produced by the classifier.
const (
	Emergency    = "emergenza"
	Pricing      = "preventivo"
	Security     = "sicurezza"
	Support      = "supporto"
	Backup       = "backup"
	Repair       = "riparazione"
	Contacts     = "contatti"
	HumanRequest = "human_request"
	General      = "generale"
)

// DefaultConfidence is returned when no rule matches.
const DefaultConfidence = 0.5

// Classification is the classifier output.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Escalate   bool    `json:"escalate"`
}

// Rule is a single keyword rule. A rule matches when any keyword is a substring of the text.
type Rule struct {
	Intent     string
	Keywords   []string
	Confidence float64
	Escalate   bool
}

// Rules is the ordered rule table. The first matching rule wins, so emergency
// terms must stay ahead of pricing terms, which stay ahead of generic support terms.
var Rules = []Rule{
	{Intent: Emergency, Keywords: []string{"emergenza", "urgente", "server down", "malware", "ransomware", "non si avvia"}, Confidence: 0.9, Escalate: true},
	{Intent: Pricing, Keywords: []string{"preventivo", "prezzo", "costo", "quanto costa"}, Confidence: 0.9, Escalate: true},
	{Intent: Security, Keywords: []string{"sicurezza", "firewall", "watchguard"}, Confidence: 0.8},
	{Intent: Support, Keywords: []string{"assistenza", "supporto", "aiuto", "problema"}, Confidence: 0.8},
	{Intent: Backup, Keywords: []string{"backup", "recovery", "dati"}, Confidence: 0.8},
	{Intent: Repair, Keywords: []string{"riparazione", "pc", "mac", "laptop"}, Confidence: 0.8},
	{Intent: Contacts, Keywords: []string{"contatti", "telefono", "email", "dove siete"}, Confidence: 0.8},
	{Intent: HumanRequest, Keywords: []string{"umano", "operatore", "persona"}, Confidence: 0.9, Escalate: true},
}

// Classify returns the first matching rule for the lower-cased text, or the general intent.
func Classify(text string) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range Rules {
		if containsAny(lower, rule.Keywords) {
			return Classification{
				Intent:     rule.Intent,
				Confidence: rule.Confidence,
				Escalate:   rule.Escalate,
			}
		}
	}
	return Classification{Intent: General, Confidence: DefaultConfidence}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
