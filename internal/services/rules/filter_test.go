package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itera/chatbot-service/internal/services/rules"
)

func TestFilterOrAugment_BlockedMessages(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		category string
	}{
		{"configuration", "Come si configura il firewall?", rules.CategoryConfiguration},
		{"credentials", "Mi date la password del router?", rules.CategoryCredentials},
		{"diy", "Posso farlo fai da te?", rules.CategoryDIY},
		{"steps", "Mi mandi le istruzioni?", rules.CategoryTechnicalSteps},
		{"diy wording inside configuration family", "Come installo da solo il backup?", rules.CategoryConfiguration},
		{"gratis beats steps copy", "Tutorial gratis per il NAS", rules.CategoryDIY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			result := rules.FilterOrAugment(tt.message, "preventivo", "risposta originale")

			// Assert
			assert.True(t, result.Blocked)
			assert.False(t, result.Augmented)
			assert.Equal(t, tt.category, result.Category)
			assert.Equal(t, rules.Redirects[tt.category], result.Text)
			assert.NotContains(t, result.Text, "risposta originale")
		})
	}
}

func TestFilterOrAugment_PasswordAlwaysRedirects(t *testing.T) {
	intents := []string{"emergenza", "preventivo", "generale", "contatti", ""}

	for _, in := range intents {
		result := rules.FilterOrAugment("qual è la PASSWORD?", in, "candidate")

		assert.True(t, result.Blocked)
		assert.Contains(t, []string{
			rules.Redirects[rules.CategoryConfiguration],
			rules.Redirects[rules.CategoryCredentials],
			rules.Redirects[rules.CategoryDIY],
			rules.Redirects[rules.CategoryTechnicalSteps],
		}, result.Text)
	}
}

func TestFilterOrAugment_AppendsSuffixForHumanIntents(t *testing.T) {
	// Act
	result := rules.FilterOrAugment("Il server è down", "emergenza", "Ti aiutiamo subito.")

	// Assert
	assert.False(t, result.Blocked)
	assert.True(t, result.Augmented)
	assert.Equal(t, "Ti aiutiamo subito."+rules.HumanInterventionSuffix, result.Text)
}

func TestFilterOrAugment_PassThrough(t *testing.T) {
	// Act
	result := rules.FilterOrAugment("Dove siete?", "contatti", "Siamo a Vimercate.")

	// Assert
	assert.False(t, result.Blocked)
	assert.False(t, result.Augmented)
	assert.Equal(t, "Siamo a Vimercate.", result.Text)
}

func TestCheckBlocked_NoMatch(t *testing.T) {
	text, category, ok := rules.CheckBlocked("Vorrei un preventivo per 10 postazioni")

	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Empty(t, category)
}
