// Package leadscore computes the 0-100 commercial value heuristic of a conversation.
package leadscore

import (
	"math"
	"regexp"
	"strings"
)

// Tier thresholds.
const (
	WarmThreshold      = 30
	QualifiedThreshold = 50
	HotThreshold       = 70
	HighValueThreshold = 85
)

// Tier labels.
const (
	TierCold      = "cold"
	TierWarm      = "warm"
	TierQualified = "qualified"
	TierHot       = "hot"
	TierHighValue = "high_value"
)

// Multipliers.
const (
	CompanySuffixMultiplier = 1.5
	RegionMultiplier        = 1.2
	UrgencyMultiplier       = 1.5
)

// Context carries the per-call flags that affect the score.
type Context struct {
	IsUrgent bool
}

// Weights maps each keyword to its points. A keyword counts once when present.
var Weights = map[string]int{
	"azienda":    20,
	"aziendale":  5,
	"ufficio":    10,
	"dipendenti": 15,
	"postazioni": 15,
	"server":     15,
	"firewall":   20,
	"sicurezza":  15,
	"backup":     15,
	"ransomware": 50,
	"attacco":    40,
	"malware":    40,
	"urgente":    20,
	"contratto":  15,
	"preventivo": 15,
	"consulenza": 10,
	"privato":    -30,
	"casa":       -20,
	"gratis":     -30,
	"personale":  -10,
	"studente":   -25,
}

// Regions are the service-area mentions that raise the score.
var Regions = []string{
	"vimercate", "monza", "brianza", "milano", "lombardia",
	"agrate", "concorezzo", "arcore", "bergamo",
}

var companySuffix = regexp.MustCompile(`\b(srl|spa|snc|sas)\b`)

// Score returns the lead score of text, clamped to [0,100].
func Score(text string, ctx Context) int {
	lower := strings.ToLower(text)

	base := 0
	for keyword, points := range Weights {
		if strings.Contains(lower, keyword) {
			base += points
		}
	}

	multiplier := 1.0
	if companySuffix.MatchString(lower) {
		multiplier *= CompanySuffixMultiplier
	}
	if mentionsRegion(lower) {
		multiplier *= RegionMultiplier
	}
	if ctx.IsUrgent {
		multiplier *= UrgencyMultiplier
	}

	return clamp(int(math.Round(float64(base) * multiplier)))
}

// Tier maps a score to its escalation tier.
func Tier(score int) string {
	switch {
	case score >= HighValueThreshold:
		return TierHighValue
	case score >= HotThreshold:
		return TierHot
	case score >= QualifiedThreshold:
		return TierQualified
	case score >= WarmThreshold:
		return TierWarm
	default:
		return TierCold
	}
}

func mentionsRegion(text string) bool {
	for _, region := range Regions {
		if strings.Contains(text, region) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
