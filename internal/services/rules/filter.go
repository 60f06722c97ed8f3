// Package rules applies the business rules that keep the assistant from giving away
// do-it-yourself technical instructions and that push human-handled intents toward sales.
package rules

import (
	"regexp"
	"strings"
)

// Redirect categories.
const (
	CategoryConfiguration  = "configuration"
	CategoryCredentials    = "credentials"
	CategoryDIY            = "diy"
	CategoryTechnicalSteps = "technical_steps"
)

// Result is the filtered reply for one turn.
type Result struct {
	Text      string `json:"text"`
	Blocked   bool   `json:"blocked"`
	Category  string `json:"category,omitempty"`
	Augmented bool   `json:"augmented"`
}

// Family groups blocked patterns by the kind of request they catch.
type Family struct {
	Name     string
	Patterns []*regexp.Regexp
}

// BlockedFamilies is scanned in order; the first matching family blocks the reply.
var BlockedFamilies = []Family{
	{
		Name: "configuration_howto",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)come\s+(si\s+)?(configur|impost|install)`),
			regexp.MustCompile(`(?i)(configurazione|impostazioni)\s+(del|della|dei|di)\b`),
		},
	},
	{
		Name: "credentials",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)password`),
			regexp.MustCompile(`(?i)credenziali`),
			regexp.MustCompile(`(?i)\blogin\b`),
			regexp.MustCompile(`(?i)accesso\s+(admin|amministratore)`),
		},
	},
	{
		Name: "diy",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)fai.?da.?te`),
			regexp.MustCompile(`(?i)da\s+solo`),
			regexp.MustCompile(`(?i)gratis`),
			regexp.MustCompile(`(?i)alternativ[ae]\s+gratuit[ae]`),
		},
	},
	{
		Name: "technical_steps",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)passo\s+(per|a)\s+passo`),
			regexp.MustCompile(`(?i)step\s+by\s+step`),
			regexp.MustCompile(`(?i)istruzioni`),
			regexp.MustCompile(`(?i)tutorial`),
			regexp.MustCompile(`(?i)dammi\s+(i\s+)?passaggi`),
		},
	},
}

var (
	configurationWording = regexp.MustCompile(`(?i)configur|impost|install`)
	credentialsWording   = regexp.MustCompile(`(?i)password|credenziali|login`)
	diyWording           = regexp.MustCompile(`(?i)fai.?da.?te|da.solo|gratis`)
)

// Redirects holds the fixed replacement reply per category.
var Redirects = map[string]string{
	CategoryConfiguration: "Le configurazioni tecniche richiedono l'intervento di un tecnico certificato: " +
		"un'impostazione errata può compromettere sicurezza e operatività. " +
		"I nostri specialisti possono occuparsene direttamente. Vuoi che ti ricontattiamo?",
	CategoryCredentials: "Per motivi di sicurezza non possiamo gestire password o credenziali in chat. " +
		"Un nostro tecnico può assisterti in modo sicuro e verificato. Chiamaci al 039 888 2041.",
	CategoryDIY: "Capisco la voglia di fare da sé, ma le soluzioni improvvisate spesso costano di più nel tempo. " +
		"Con IT-ERA il sopralluogo e la consulenza iniziale sono gratuiti. Vuoi fissare un appuntamento?",
	CategoryTechnicalSteps: "Ogni infrastruttura è diversa, quindi preferiamo non dare procedure generiche. " +
		"Un nostro tecnico può analizzare il tuo caso specifico. Posso metterti in contatto con lui?",
}

// HumanInterventionSuffix is appended to replies for intents that need a human.
const HumanInterventionSuffix = "\n\n⚡ Per una soluzione rapida e professionale contatta subito i nostri tecnici: 039 888 2041."

// RequiresHuman lists the intents that receive the urgency suffix.
var RequiresHuman = map[string]bool{
	"emergenza":   true,
	"preventivo":  true,
	"sicurezza":   true,
	"backup":      true,
	"riparazione": true,
}

// CheckBlocked reports whether the message matches a blocked family and, if so,
// returns the redirect text and category.
func CheckBlocked(message string) (string, string, bool) {
	for _, family := range BlockedFamilies {
		for _, pattern := range family.Patterns {
			if pattern.MatchString(message) {
				category := redirectCategory(message)
				return Redirects[category], category, true
			}
		}
	}
	return "", "", false
}

// FilterOrAugment replaces the candidate reply with a redirect when the message is
// blocked, otherwise appends the urgency suffix for intents that require a human.
func FilterOrAugment(message, intent, candidate string) Result {
	if text, category, blocked := CheckBlocked(message); blocked {
		return Result{Text: text, Blocked: true, Category: category}
	}
	if RequiresHuman[intent] && !strings.HasSuffix(candidate, HumanInterventionSuffix) {
		return Result{Text: candidate + HumanInterventionSuffix, Augmented: true}
	}
	return Result{Text: candidate}
}

// redirectCategory picks the copy from the exact wording, not from the family that matched.
func redirectCategory(message string) string {
	switch {
	case configurationWording.MatchString(message):
		return CategoryConfiguration
	case credentialsWording.MatchString(message):
		return CategoryCredentials
	case diyWording.MatchString(message):
		return CategoryDIY
	default:
		return CategoryTechnicalSteps
	}
}
