package notify

import (
	"fmt"
	"time"

	"github.com/itera/chatbot-service/internal/domain/models"
)

// Card theme colors.
const (
	ThemeEmergency     = "#ff0000"
	ThemeLead          = "#ff6b35"
	ThemeHighValueLead = "FF0000"
	ThemeLeadAlert     = "FFA500"
)

// HighValueScore is the lead score from which an alert card is sent.
const HighValueScore = 85

const maxRequestPreview = 100

// Card is an Office 365 connector MessageCard.
type Card struct {
	Type            string    `json:"@type"`
	Context         string    `json:"@context"`
	ThemeColor      string    `json:"themeColor"`
	Summary         string    `json:"summary"`
	Sections        []Section `json:"sections"`
	PotentialAction []Action  `json:"potentialAction,omitempty"`
}

// Section is a card section.
type Section struct {
	ActivityTitle    string `json:"activityTitle"`
	ActivitySubtitle string `json:"activitySubtitle,omitempty"`
	Facts            []Fact `json:"facts"`
}

// Fact is a name/value row of a section.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Action is a card action. ActionCard actions nest OpenUri actions.
type Action struct {
	Type    string   `json:"@type"`
	Name    string   `json:"name"`
	Actions []Action `json:"actions,omitempty"`
	Targets []Target `json:"targets,omitempty"`
}

// Target is an OpenUri destination.
type Target struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

func newCard(theme, summary string, sections ...Section) Card {
	return Card{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: theme,
		Summary:    summary,
		Sections:   sections,
	}
}

// EscalationCard builds the card posted when a conversation is handed to a human.
func EscalationCard(lead *models.LeadRecord) Card {
	priority := "NORMALE"
	theme := ThemeLead
	title := "🔔 Nuovo Lead - Preventivo Richiesto"
	if lead.IsEmergency() {
		priority = "EMERGENZA"
		theme = ThemeEmergency
		title = "🚨 EMERGENZA IT - Intervento Urgente"
	}

	ts := lead.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	card := newCard(theme, title, Section{
		ActivityTitle:    title,
		ActivitySubtitle: "Richiesta dal chatbot IT-ERA - " + ts.Format("02/01/2006 15:04:05"),
		Facts: []Fact{
			{Name: "Cliente", Value: fmt.Sprintf("%s (%s)", orDefault(lead.Name, "Visitatore chat"), orDefault(lead.Email, "Non fornita"))},
			{Name: "Telefono", Value: orDefault(lead.Phone, "Non fornito")},
			{Name: "Azienda", Value: orDefault(lead.Company, "Non specificata")},
			{Name: "Zona", Value: orDefault(lead.Zone, "Da determinare")},
			{Name: "Servizio", Value: orDefault(lead.Service, "Consulenza generica")},
			{Name: "Priorità", Value: priority},
			{Name: "Dettagli", Value: orDefault(lead.Message, "Richiesta dal chatbot")},
		},
	})

	card.PotentialAction = []Action{{
		Type: "ActionCard",
		Name: "Azioni Rapide",
		Actions: []Action{
			{
				Type:    "OpenUri",
				Name:    "📞 Chiama Cliente",
				Targets: []Target{{OS: "default", URI: "tel:" + lead.Phone}},
			},
			{
				Type:    "OpenUri",
				Name:    "📧 Invia Email",
				Targets: []Target{{OS: "default", URI: fmt.Sprintf("mailto:%s?subject=IT-ERA - %s", lead.Email, lead.Service)}},
			},
		},
	}}
	return card
}

// LeadAlertCard builds the high-value lead alert.
func LeadAlertCard(score int, lastMessage string) Card {
	theme := ThemeLeadAlert
	if score >= HighValueScore {
		theme = ThemeHighValueLead
	}

	return newCard(theme, fmt.Sprintf("🔥 Lead Score: %d/100", score), Section{
		ActivityTitle: "**NUOVO LEAD AD ALTO VALORE**",
		Facts: []Fact{
			{Name: "Score", Value: fmt.Sprintf("%d/100", score)},
			{Name: "Richiesta", Value: truncate(lastMessage, maxRequestPreview)},
			{Name: "Azione", Value: "Contattare entro 1 ora"},
		},
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
