package swarm

import (
	"fmt"
	"strings"
)

// CostPerAgent is the flat estimated cost of one agent invocation.
const CostPerAgent = 0.005

// MaxOptions caps the quick replies of a consensus.
const MaxOptions = 5

// WelcomeMessage is the general reply and the fallback reply.
const WelcomeMessage = "👋 Ciao! Sono Mark, l'assistente virtuale di IT-ERA.\n\n" +
	"Ci occupiamo di assistenza informatica, sicurezza di rete, backup e cloud per le aziende della Brianza e di Milano.\n\n" +
	"Come posso aiutarti oggi?"

// DefaultOptions are offered when no agent suggests anything more specific.
var DefaultOptions = []string{
	"💼 Servizi IT-ERA",
	"🔒 Sicurezza",
	"💻 Assistenza",
	"💰 Preventivo",
}

// Responses maps each invoked agent to its successful output.
type Responses map[AgentType]*AgentResponse

func (r Responses) lead() *LeadData {
	if resp := r[AgentLeadQualifier]; resp != nil {
		return resp.Lead
	}
	return nil
}

func (r Responses) technical() *TechnicalAdvice {
	if resp := r[AgentTechnicalAdvisor]; resp != nil {
		return resp.Technical
	}
	return nil
}

func (r Responses) sales() *SalesQuote {
	if resp := r[AgentSalesAssistant]; resp != nil {
		return resp.Sales
	}
	return nil
}

func (r Responses) support() *SupportPlan {
	if resp := r[AgentSupportSpecialist]; resp != nil {
		return resp.Support
	}
	return nil
}

// Consensus is the single reply blended from the agent outputs.
type Consensus struct {
	Rule     string   `json:"rule"`
	Response string   `json:"response"`
	Options  []string `json:"options"`
	Score    int      `json:"score"`
	Cost     float64  `json:"estimatedCost"`
}

// ConsensusRule is one ranked entry of the consensus table.
type ConsensusRule struct {
	Name    string
	Score   int
	Matches func(Responses) bool
	Build   func(Responses) string
}

// ConsensusRules is evaluated in order; the first matching rule wins.
var ConsensusRules = []ConsensusRule{
	{
		Name:  "emergency",
		Score: 95,
		Matches: func(r Responses) bool {
			s := r.support()
			return s != nil && s.Priority == PriorityCritical
		},
		Build: buildEmergencyResponse,
	},
	{
		Name:  "qualified_lead",
		Score: 90,
		Matches: func(r Responses) bool {
			l := r.lead()
			return l != nil && l.Qualification == QualificationHot
		},
		Build: buildQualifiedLeadResponse,
	},
	{
		Name:  "technical",
		Score: 85,
		Matches: func(r Responses) bool {
			t := r.technical()
			return t != nil && len(t.Recommendations) > 0
		},
		Build: buildTechnicalResponse,
	},
	{
		Name:  "pricing",
		Score: 80,
		Matches: func(r Responses) bool {
			s := r.sales()
			return s != nil && s.Total > 0
		},
		Build: buildPricingResponse,
	},
	{
		Name:    "general",
		Score:   70,
		Matches: func(Responses) bool { return true },
		Build:   func(Responses) string { return WelcomeMessage },
	},
}

// BuildConsensus applies the rule table to the agent outputs.
func BuildConsensus(responses Responses) Consensus {
	c := Consensus{
		Options: GenerateOptions(responses),
		Cost:    CostPerAgent * float64(len(responses)),
	}
	for _, rule := range ConsensusRules {
		if rule.Matches(responses) {
			c.Rule = rule.Name
			c.Score = rule.Score
			c.Response = rule.Build(responses)
			break
		}
	}
	return c
}

// GenerateOptions returns at most MaxOptions quick replies.
func GenerateOptions(responses Responses) []string {
	var options []string

	if l := responses.lead(); l != nil && l.Qualification != QualificationCold {
		options = append(options, "📞 Richiedi consulenza gratuita", "💰 Preventivo dettagliato")
	}
	if t := responses.technical(); t != nil && len(t.Recommendations) > 0 {
		options = append(options, "🛡️ Info sicurezza", "💾 Soluzioni backup")
	}
	if s := responses.support(); s != nil && s.Priority == PriorityCritical {
		options = append(options, "🚨 Chiamata urgente")
	}

	if len(options) == 0 {
		options = append(options, DefaultOptions...)
	}
	if len(options) > MaxOptions {
		options = options[:MaxOptions]
	}
	return options
}

func buildEmergencyResponse(r Responses) string {
	s := r.support()
	var b strings.Builder
	b.WriteString("🚨 **EMERGENZA RILEVATA**\n\n")
	fmt.Fprintf(&b, "📞 **Chiama SUBITO: %s**\n\n", ContactPhone)
	b.WriteString("**Azioni immediate:**\n")
	for _, a := range s.ImmediateActions {
		fmt.Fprintf(&b, "• %s\n", a)
	}
	fmt.Fprintf(&b, "\n**Tempo di risposta:** %s\n\n", s.ResponseTime)
	b.WriteString("Il nostro team di emergenza è pronto ad intervenire.")
	return b.String()
}

func buildQualifiedLeadResponse(r Responses) string {
	lead := r.lead()
	var b strings.Builder
	b.WriteString("👋 **Perfetto! Possiamo aiutarti.**\n\n")

	if lead.CompanySize > 0 {
		fmt.Fprintf(&b, "Per un'azienda di %d persone ", lead.CompanySize)
	}
	if lead.Location != "" {
		fmt.Fprintf(&b, "a %s ", lead.Location)
	}
	b.WriteString("abbiamo soluzioni specifiche:\n\n")

	if t := r.technical(); t != nil && len(t.Recommendations) > 0 {
		rec := t.Recommendations[0]
		b.WriteString("**💡 Soluzione consigliata:**\n")
		fmt.Fprintf(&b, "• %s\n• %s\n• Prezzo indicativo: %s\n\n", rec.Product, rec.Description, rec.Price)
	}

	b.WriteString("✅ **Prossimi passi:**\n")
	b.WriteString("1. Sopralluogo GRATUITO presso la tua sede\n")
	b.WriteString("2. Analisi dettagliata delle esigenze\n")
	b.WriteString("3. Preventivo personalizzato senza impegno\n\n")
	fmt.Fprintf(&b, "📞 **Contattaci: %s**", ContactPhone)
	return b.String()
}

func buildTechnicalResponse(r Responses) string {
	t := r.technical()
	var b strings.Builder
	b.WriteString("🛡️ **Consulenza Tecnica Specializzata**\n\n")
	b.WriteString("**Soluzioni consigliate:**\n\n")
	for _, rec := range t.Recommendations {
		fmt.Fprintf(&b, "**%s**\n%s\n💰 %s\n✅ %s\n\n", rec.Product, rec.Description, rec.Price, strings.Join(rec.Features, ", "))
	}
	fmt.Fprintf(&b, "🏆 **%s**\n", t.Expertise)
	b.WriteString("10+ anni di esperienza nella Brianza\n\n")
	fmt.Fprintf(&b, "📞 **Consulenza gratuita: %s**", ContactPhone)
	return b.String()
}

func buildPricingResponse(r Responses) string {
	q := r.sales()
	var b strings.Builder
	b.WriteString("💰 **Preventivo Personalizzato**\n\n")

	b.WriteString("**Dettaglio servizi:**\n")
	for _, item := range q.Items {
		fmt.Fprintf(&b, "• %s: €%.2f\n", item.Description, item.Price)
	}
	b.WriteString("\n")
	if q.Discount > 0 {
		fmt.Fprintf(&b, "Subtotale: €%.2f\nSconto applicato: -€%.2f\n", q.Subtotal, q.Discount)
	}
	fmt.Fprintf(&b, "**Totale: €%.2f**\n\n", q.Total)

	fmt.Fprintf(&b, "✅ Validità: %s\n✅ Pagamento: %s\n\n", q.Validity, q.PaymentTerms)
	if q.SpecialOffer != "" {
		fmt.Fprintf(&b, "🎁 **Offerta speciale:** %s\n\n", q.SpecialOffer)
	}
	fmt.Fprintf(&b, "📞 **Per confermare: %s**", ContactPhone)
	return b.String()
}
