package swarm

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Stats are the orchestrator counters since start.
type Stats struct {
	Turns      int64 `json:"turns"`
	Fallbacks  int64 `json:"fallbacks"`
	SlowTurns  int64 `json:"slowTurns"`
	OverBudget int64 `json:"overBudget"`
}

type monitor struct {
	turns      atomic.Int64
	fallbacks  atomic.Int64
	slowTurns  atomic.Int64
	overBudget atomic.Int64
}

func (m *monitor) recordFallback() {
	m.turns.Add(1)
	m.fallbacks.Add(1)
}

func (m *monitor) snapshot() Stats {
	return Stats{
		Turns:      m.turns.Load(),
		Fallbacks:  m.fallbacks.Load(),
		SlowTurns:  m.slowTurns.Load(),
		OverBudget: m.overBudget.Load(),
	}
}

func (o *Orchestrator) observe(sessionID string, a Analysis, c Consensus, elapsed time.Duration) {
	o.stats.turns.Add(1)

	if elapsed > o.responseTimeTarget {
		o.stats.slowTurns.Add(1)
		log.Warn().
			Dur("elapsed", elapsed).
			Dur("target", o.responseTimeTarget).
			Msg("swarm response time exceeded target")
	}
	if c.Cost > o.costLimit {
		o.stats.overBudget.Add(1)
		log.Warn().
			Float64("cost", c.Cost).
			Float64("limit", o.costLimit).
			Msg("swarm cost exceeded limit")
	}

	log.Debug().
		Str("session_id", sessionID).
		Strs("intents", a.Intents).
		Str("rule", c.Rule).
		Int("consensus_score", c.Score).
		Float64("cost", c.Cost).
		Dur("elapsed", elapsed).
		Msg("swarm pattern")
}
