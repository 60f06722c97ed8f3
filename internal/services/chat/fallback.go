package chat

import (
	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/services/intent"
)

// cannedReply is a static answer used when neither the router nor the AI engine replies.
type cannedReply struct {
	Message  string
	Options  []string
	NextStep models.Step
	Escalate bool
	Priority string
}

// WelcomeMessage opens every conversation.
const WelcomeMessage = "Ciao! Sono Mark, l'assistente virtuale di IT-ERA 👋\n\n" +
	"Ti aiuto con sicurezza informatica, assistenza tecnica, backup e soluzioni IT per la tua azienda in Brianza e Lombardia.\n\n" +
	"Come posso aiutarti oggi?"

// HandoffMessage is returned once a session reaches its message cap.
const HandoffMessage = "Abbiamo parlato parecchio! 😊 Per darti il miglior supporto possibile ti metto in contatto con un nostro consulente.\n\n" +
	"📞 Chiama il 039 888 2041 oppure lasciaci i tuoi contatti e ti richiamiamo noi."

var welcomeOptions = []string{
	"🔒 Sicurezza informatica",
	"🛠️ Assistenza tecnica",
	"💾 Backup e recovery",
	"💰 Richiedi un preventivo",
}

var handoffOptions = []string{"📞 Chiamata immediata", "📧 Lascia i tuoi contatti"}

var redirectOptions = []string{"👨‍💻 Parla con un tecnico", "📧 Lascia i tuoi contatti", "💰 Preventivo"}

var welcome = cannedReply{
	Message:  WelcomeMessage,
	Options:  welcomeOptions,
	NextStep: models.StepServiceSelection,
}

var fallbackReplies = map[string]cannedReply{
	intent.Emergency: {
		Message: "🚨 Capisco che si tratta di un'emergenza. Per un intervento immediato chiama subito il nostro supporto tecnico: 📞 039 888 2041.\n\n" +
			"I nostri tecnici intervengono rapidamente in tutta la Brianza.",
		Options:  []string{"📞 Chiamata urgente", "📧 Lascia i tuoi contatti"},
		NextStep: models.StepEscalation,
		Escalate: true,
		Priority: "critical",
	},
	intent.Pricing: {
		Message: "💰 Prepariamo preventivi personalizzati e gratuiti in base alle esigenze della tua azienda.\n\n" +
			"Quante postazioni avete e di quale servizio hai bisogno?",
		Options:  []string{"🔒 Sicurezza", "💾 Backup", "🛠️ Assistenza continuativa", "📞 Parla con un consulente"},
		NextStep: models.StepBusinessInfo,
		Escalate: true,
		Priority: "high",
	},
	intent.Security: {
		Message: "🛡️ Siamo WatchGuard Certified Partner: firewall, protezione endpoint e monitoraggio per aziende di ogni dimensione.\n\n" +
			"Vuoi una valutazione gratuita della sicurezza della tua rete?",
		Options:  []string{"🛡️ Firewall WatchGuard", "🔍 Analisi sicurezza", "💰 Preventivo"},
		NextStep: models.StepServiceDetails,
	},
	intent.Support: {
		Message: "🛠️ Offriamo assistenza tecnica remota e on-site per aziende in Brianza e Lombardia.\n\n" +
			"Descrivimi brevemente il problema oppure chiama il 039 888 2041.",
		Options:  []string{"💻 Assistenza remota", "🚗 Intervento on-site", "📞 Chiama ora"},
		NextStep: models.StepServiceDetails,
	},
	intent.Backup: {
		Message: "💾 Proteggiamo i dati aziendali con soluzioni di backup e disaster recovery, in locale e in cloud.\n\n" +
			"Quanti dati e quante postazioni devi proteggere?",
		Options:  []string{"☁️ Backup cloud", "🏢 Backup locale", "💰 Preventivo"},
		NextStep: models.StepServiceDetails,
	},
	intent.Repair: {
		Message: "💻 Ripariamo PC, Mac e laptop aziendali, con diagnosi rapida nel nostro laboratorio di Vimercate.\n\n" +
			"Che tipo di dispositivo devi riparare?",
		Options:  []string{"💻 PC / Laptop", "🍎 Mac", "📞 Chiama ora"},
		NextStep: models.StepServiceDetails,
	},
	intent.Contacts: {
		Message: "📍 IT-ERA, Viale Risorgimento 32, Vimercate (MB)\n📞 039 888 2041\n📧 info@it-era.it\n\n" +
			"Siamo disponibili dal lunedì al venerdì, 9:00-18:00.",
		Options:  []string{"📞 Chiama ora", "📧 Scrivici", "💰 Preventivo"},
		NextStep: models.StepContinue,
	},
	intent.HumanRequest: {
		Message: "👤 Ti metto subito in contatto con un nostro consulente.\n\n" +
			"📞 Chiama il 039 888 2041 oppure lasciaci i tuoi contatti e ti richiamiamo noi.",
		Options:  handoffOptions,
		NextStep: models.StepEscalation,
		Escalate: true,
		Priority: "high",
	},
}

// fallbackFor returns the static reply for a classifier intent, or the welcome reply.
func fallbackFor(intentName string) cannedReply {
	if reply, ok := fallbackReplies[intentName]; ok {
		return reply
	}
	return welcome
}
