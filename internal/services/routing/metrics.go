package routing

import (
	"sync"
	"time"
)

// Recommendations produced by the arm comparison.
const (
	RecommendIncrease = "increase_swarm_traffic"
	RecommendReduce   = "reduce_swarm_traffic"
	RecommendMaintain = "maintain_current"
)

// Comparison statuses.
const (
	StatusInsufficientData = "insufficient_data"
	StatusReady            = "ready"
)

// DefaultMinSampleSize is the per-arm sample required before comparing arms.
const DefaultMinSampleSize = 10

const (
	increaseStep               = 10
	reduceStep                 = 5
	increaseTimeImprovement    = 0.3
	increaseCostImprovement    = 0.4
	reduceImprovementThreshold = -0.1
)

// ArmMetrics are the running aggregates of one arm.
type ArmMetrics struct {
	Count           int64   `json:"count"`
	Errors          int64   `json:"errors"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	ErrorRate       float64 `json:"errorRate"`
	AvgCost         float64 `json:"avgCost"`
	TotalCost       float64 `json:"totalCost"`
}

// Comparison compares the swarm arm against the traditional arm.
// Improvements are percentages; positive means swarm is better.
type Comparison struct {
	Status           string  `json:"status"`
	SpeedImprovement float64 `json:"speedImprovement,omitempty"`
	CostReduction    float64 `json:"costReduction,omitempty"`
	ErrorRateChange  float64 `json:"errorRateChange,omitempty"`
	Recommendation   string  `json:"recommendation,omitempty"`
}

// Metrics is a snapshot of both arms.
type Metrics struct {
	Traditional     ArmMetrics `json:"traditional"`
	Swarm           ArmMetrics `json:"swarm"`
	SwarmPercentage int        `json:"swarmPercentage"`
	Comparison      Comparison `json:"comparison"`
}

// Adjustment is the outcome of AdjustSwarmPercentage.
type Adjustment struct {
	Previous       int    `json:"previous"`
	Current        int    `json:"current"`
	Recommendation string `json:"recommendation"`
}

type armStats struct {
	count     int64
	errors    int64
	totalTime time.Duration
	cost      float64
}

func (a armStats) avgTime() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.totalTime) / float64(time.Millisecond) / float64(a.count)
}

func (a armStats) avgCost() float64 {
	if a.count == 0 {
		return 0
	}
	return a.cost / float64(a.count)
}

func (a armStats) errorRate() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.errors) / float64(a.count)
}

func (a armStats) snapshot() ArmMetrics {
	return ArmMetrics{
		Count:           a.count,
		Errors:          a.errors,
		AvgResponseTime: a.avgTime(),
		ErrorRate:       a.errorRate(),
		AvgCost:         a.avgCost(),
		TotalCost:       a.cost,
	}
}

type metricsBook struct {
	mu     sync.Mutex
	arms   map[Arm]*armStats
	minRun int64
}

func newMetricsBook(minSampleSize int) *metricsBook {
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}
	return &metricsBook{
		arms: map[Arm]*armStats{
			ArmSwarm:       {},
			ArmTraditional: {},
		},
		minRun: int64(minSampleSize),
	}
}

func (m *metricsBook) recordSuccess(arm Arm, elapsed time.Duration, cost float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.arms[arm]
	s.count++
	s.totalTime += elapsed
	s.cost += cost
}

// recordError counts the call without its latency or cost.
func (m *metricsBook) recordError(arm Arm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.arms[arm]
	s.count++
	s.errors++
}

func (m *metricsBook) snapshot(percentage int) Metrics {
	m.mu.Lock()
	trad := *m.arms[ArmTraditional]
	sw := *m.arms[ArmSwarm]
	m.mu.Unlock()

	return Metrics{
		Traditional:     trad.snapshot(),
		Swarm:           sw.snapshot(),
		SwarmPercentage: percentage,
		Comparison:      compare(trad, sw, m.minRun),
	}
}

func compare(trad, sw armStats, minRun int64) Comparison {
	if trad.count < minRun || sw.count < minRun {
		return Comparison{Status: StatusInsufficientData, Recommendation: StatusInsufficientData}
	}

	timeImprovement := improvement(trad.avgTime(), sw.avgTime())
	costImprovement := improvement(trad.avgCost(), sw.avgCost())

	return Comparison{
		Status:           StatusReady,
		SpeedImprovement: timeImprovement * 100,
		CostReduction:    costImprovement * 100,
		ErrorRateChange:  (sw.errorRate() - trad.errorRate()) * 100,
		Recommendation:   Recommend(timeImprovement, costImprovement),
	}
}

// improvement is the relative gain of candidate over baseline; zero without a baseline.
func improvement(baseline, candidate float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (baseline - candidate) / baseline
}

// Recommend maps relative time and cost improvements of swarm over traditional
// to a traffic recommendation.
func Recommend(timeImprovement, costImprovement float64) string {
	switch {
	case timeImprovement >= increaseTimeImprovement && costImprovement >= increaseCostImprovement:
		return RecommendIncrease
	case timeImprovement <= reduceImprovementThreshold || costImprovement <= reduceImprovementThreshold:
		return RecommendReduce
	default:
		return RecommendMaintain
	}
}
