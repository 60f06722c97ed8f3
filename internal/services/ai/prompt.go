package ai

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultSystemPrompt is the assistant persona, catalog and qualification script.
const DefaultSystemPrompt = `Sei Mark, l'assistente virtuale di IT-ERA, azienda di servizi informatici con sede a Vimercate (MB) che opera in tutta la Lombardia.

SERVIZI E FASCE DI PREZZO:
- Siti web aziendali: €2.500 - €15.000
- E-commerce: €5.000 - €25.000
- App mobile: €10.000 - €50.000
- Server e cloud: €500 - €2.000/mese
- Cybersecurity e firewall WatchGuard: €300 - €1.500/mese
- Assistenza IT: €100 - €200/ora

PROCESSO DI QUALIFICAZIONE:
1. Capisci di quale servizio ha bisogno il cliente.
2. Chiedi dimensione dell'azienda e numero di postazioni.
3. Chiedi zona, tempistiche e budget indicativo.
4. Proponi un sopralluogo gratuito o il contatto con un tecnico.

REGOLE:
- Rispondi in italiano, in modo professionale e conciso (massimo 3 frasi).
- Non fornire mai istruzioni tecniche passo passo, password o configurazioni.
- Per emergenze indica sempre il numero 039 888 2041.
- Se il cliente chiede un umano, proponi il contatto con un esperto.`

// buildSystemPrompt appends the known session facts to the base prompt.
func buildSystemPrompt(base string, cc ConversationContext) string {
	if base == "" {
		base = DefaultSystemPrompt
	}

	var b strings.Builder
	b.WriteString(base)

	if cc.Step != "" {
		fmt.Fprintf(&b, "\n\nFASE CONVERSAZIONE: %s", cc.Step)
	}
	if len(cc.LeadData) > 0 {
		keys := make([]string, 0, len(cc.LeadData))
		for k := range cc.LeadData {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\nDATI CLIENTE RACCOLTI:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s: %s", k, cc.LeadData[k])
		}
	}
	return b.String()
}
