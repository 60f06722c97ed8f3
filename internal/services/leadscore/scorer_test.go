package leadscore_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/itera/chatbot-service/internal/services/leadscore"
)

func TestScore_Saturates(t *testing.T) {
	assert.Equal(t, 100, leadscore.Score("azienda azienda azienda ransomware attacco", leadscore.Context{}))
}

func TestScore_Floors(t *testing.T) {
	assert.Equal(t, 0, leadscore.Score("gratis casa privato", leadscore.Context{}))
}

func TestScore_Multipliers(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		ctx      leadscore.Context
		expected int
	}{
		{"base only", "ci serve un firewall", leadscore.Context{}, 20},
		{"company suffix", "Rossi SRL cerca un firewall", leadscore.Context{}, 30},
		{"region", "firewall per ufficio a Monza", leadscore.Context{}, 36},
		{"urgent", "firewall", leadscore.Context{IsUrgent: true}, 30},
		{"all multipliers", "Rossi srl a Monza, firewall", leadscore.Context{IsUrgent: true}, 54},
		{"keyword counted once", "backup backup backup", leadscore.Context{}, 15},
		{"no keywords", "buongiorno", leadscore.Context{}, 0},
		{"pmi scenario", "Siamo una PMI con 50 dipendenti a Monza, serve firewall e backup", leadscore.Context{}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, leadscore.Score(tt.text, tt.ctx))
		})
	}
}

func TestTier(t *testing.T) {
	assert.Equal(t, leadscore.TierCold, leadscore.Tier(0))
	assert.Equal(t, leadscore.TierCold, leadscore.Tier(29))
	assert.Equal(t, leadscore.TierWarm, leadscore.Tier(30))
	assert.Equal(t, leadscore.TierQualified, leadscore.Tier(50))
	assert.Equal(t, leadscore.TierHot, leadscore.Tier(70))
	assert.Equal(t, leadscore.TierHighValue, leadscore.Tier(85))
	assert.Equal(t, leadscore.TierHighValue, leadscore.Tier(100))
}

func TestScore_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	positive := []interface{}{}
	for keyword, points := range leadscore.Weights {
		if points > 0 {
			positive = append(positive, keyword)
		}
	}

	properties.Property("score is always within [0,100]", prop.ForAll(
		func(text string, urgent bool) bool {
			score := leadscore.Score(text, leadscore.Context{IsUrgent: urgent})
			return score >= 0 && score <= 100
		},
		gen.AlphaString(),
		gen.Bool(),
	))

	properties.Property("adding a positive keyword never lowers the score", prop.ForAll(
		func(text string, keyword string, urgent bool) bool {
			ctx := leadscore.Context{IsUrgent: urgent}
			return leadscore.Score(text+" "+keyword, ctx) >= leadscore.Score(text, ctx)
		},
		gen.AlphaString(),
		gen.OneConstOf(positive...),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
