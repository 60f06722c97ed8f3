package routing_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/services/ai"
	"github.com/itera/chatbot-service/internal/services/notify"
	"github.com/itera/chatbot-service/internal/services/routing"
	"github.com/itera/chatbot-service/internal/services/swarm"
	"github.com/itera/chatbot-service/internal/testutil"
)

type swarmFunc func(ctx context.Context, sessionID, message string, cc swarm.ConversationContext) *swarm.Result

func (f swarmFunc) ProcessMessage(ctx context.Context, sessionID, message string, cc swarm.ConversationContext) *swarm.Result {
	return f(ctx, sessionID, message, cc)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, message string, cc ai.ConversationContext, sessionID string) (*ai.Response, error) {
	args := m.Called(ctx, message, cc, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.Response), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, card notify.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func staticSwarm(cost float64) routing.SwarmProcessor {
	return swarmFunc(func(context.Context, string, string, swarm.ConversationContext) *swarm.Result {
		return &swarm.Result{
			Response:  "risposta swarm",
			Options:   []string{"📞 Richiedi consulenza gratuita"},
			Intent:    swarm.IntentLeadQualification,
			LeadScore: 55,
			NextSteps: []string{"sales_contact"},
			Cost:      cost,
			Metadata:  swarm.Metadata{AgentsUsed: 3, ConsensusScore: 90, Rule: "qualified_lead"},
		}
	})
}

func failingSwarm() routing.SwarmProcessor {
	return swarmFunc(func(context.Context, string, string, swarm.ConversationContext) *swarm.Result {
		return nil
	})
}

func sessionWith(id, message string) *models.Session {
	s := models.NewSession(id)
	s.AppendMessage(models.NewUserMessage(message))
	return s
}

func newRouter(t *testing.T, cfg routing.Config) *routing.Router {
	t.Helper()
	r, err := routing.NewRouter(&cfg)
	require.NoError(t, err)
	t.Cleanup(r.Stop)
	return r
}

func TestHashString_KnownValues(t *testing.T) {
	assert.Equal(t, int64(0), routing.HashString(""))
	assert.Equal(t, int64(97), routing.HashString("a"))
	assert.Equal(t, int64(3105), routing.HashString("ab"))
	assert.Equal(t, int64(99162322), routing.HashString("hello"))
	assert.Equal(t, 5, routing.Bucket("ab"))
}

func TestBucket_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("bucket is within 0..99", prop.ForAll(
		func(id string) bool {
			b := routing.Bucket(id)
			return b >= 0 && b < 100
		},
		gen.AnyString(),
	))

	properties.Property("bucket is deterministic", prop.ForAll(
		func(id string) bool {
			return routing.Bucket(id) == routing.Bucket(id)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestShouldUseSwarm(t *testing.T) {
	tests := []struct {
		name       string
		abEnabled  bool
		percentage int
		want       bool
	}{
		{"ab disabled always swarm", false, 0, true},
		{"zero percent", true, 0, false},
		{"full percent", true, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(t, routing.Config{
				Swarm:           staticSwarm(0.01),
				ABTestEnabled:   tt.abEnabled,
				SwarmPercentage: tt.percentage,
			})

			assert.Equal(t, tt.want, r.ShouldUseSwarm("chat_1700000000000_abc123"))
		})
	}
}

func TestShouldUseSwarm_FollowsBucket(t *testing.T) {
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), ABTestEnabled: true, SwarmPercentage: 6})

	assert.True(t, r.ShouldUseSwarm("ab"))
	assert.False(t, r.ShouldUseSwarm("a"))
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := routing.NewRouter(nil)
	assert.Error(t, err)

	_, err = routing.NewRouter(&routing.Config{})
	assert.Error(t, err)

	_, err = routing.NewRouter(&routing.Config{Swarm: staticSwarm(0), SwarmPercentage: 101})
	assert.Error(t, err)
}

func TestProcessMessage_SwarmArm(t *testing.T) {
	// Arrange
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0)})

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s1", "ciao", sessionWith("s1", "ciao"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, routing.ArmSwarm, resp.Arm)
	assert.Equal(t, "risposta swarm", resp.Response)
	assert.InDelta(t, routing.DefaultSwarmCost, resp.Cost, 1e-9)
	assert.Equal(t, []string{"sales_contact"}, resp.SuggestedActions)
	assert.True(t, resp.Escalate)
	assert.Equal(t, 90, resp.Metadata.ConsensusScore)

	m := r.Metrics()
	assert.Equal(t, int64(1), m.Swarm.Count)
	assert.Equal(t, int64(0), m.Traditional.Count)
}

func TestProcessMessage_TraditionalArm(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, "Vorrei un backup", mock.Anything, "s2").Return(&ai.Response{
		Message:  "Possiamo proporti una soluzione di backup.",
		Intent:   ai.IntentGenerale,
		Options:  []string{"Preventivo"},
		Cost:     0.0003,
		Provider: "openai",
	}, nil)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, ABTestEnabled: true, SwarmPercentage: 0})

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s2", "Vorrei un backup", sessionWith("s2", "Vorrei un backup"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, routing.ArmTraditional, resp.Arm)
	assert.Equal(t, routing.IntentBackup, resp.Intent)
	assert.Equal(t, "Possiamo proporti una soluzione di backup.", resp.Response)
	assert.InDelta(t, 0.0003, resp.Cost, 1e-9)
	assert.Equal(t, 15, resp.LeadScore)
	generator.AssertExpectations(t)
}

func TestProcessMessage_TraditionalKeepsGuardrailIntent(t *testing.T) {
	tests := []struct {
		name     string
		intent   string
		escalate bool
	}{
		{"rate limit", ai.IntentRateLimit, false},
		{"cost limit", ai.IntentCostLimitReached, true},
		{"provider error", ai.IntentAIError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := new(mockGenerator)
			generator.On("Generate", mock.Anything, "Vorrei un backup", mock.Anything, "s-guard").Return(&ai.Response{
				Message:  "Contattaci al 039 888 2041.",
				Intent:   tt.intent,
				Escalate: tt.escalate,
			}, nil)
			r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, ABTestEnabled: true, SwarmPercentage: 0})

			resp, err := r.ProcessMessage(context.Background(), "s-guard", "Vorrei un backup", sessionWith("s-guard", "Vorrei un backup"))

			require.NoError(t, err)
			assert.Equal(t, tt.intent, resp.Intent)
			assert.Equal(t, tt.escalate, resp.Escalate)
			assert.Zero(t, resp.Cost)
		})
	}
}

func TestProcessMessage_TraditionalHistoryExcludesCurrentMessage(t *testing.T) {
	// Arrange
	session := models.NewSession("s3")
	for i := 0; i < 8; i++ {
		session.AppendMessage(models.NewUserMessage("domanda"))
		session.AppendMessage(models.NewBotMessage("risposta", "", nil, models.SourceAI, 0))
	}
	session.AppendMessage(models.NewUserMessage("ultima domanda"))

	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, "ultima domanda", mock.MatchedBy(func(cc ai.ConversationContext) bool {
		return len(cc.History) == routing.HistoryMessages &&
			cc.History[len(cc.History)-1].Role == "assistant"
	}), "s3").Return(&ai.Response{Message: "ok"}, nil)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, ABTestEnabled: true, SwarmPercentage: 0})

	// Act
	_, err := r.ProcessMessage(context.Background(), "s3", "ultima domanda", session)

	// Assert
	require.NoError(t, err)
	generator.AssertExpectations(t)
}

func TestProcessMessage_BlockedSkipsAI(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, ABTestEnabled: true, SwarmPercentage: 0})
	msg := "Come si configura il firewall?"

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s4", msg, sessionWith("s4", msg))

	// Assert
	require.NoError(t, err)
	assert.True(t, resp.Metadata.Blocked)
	assert.Equal(t, 0.0, resp.Cost)
	assert.NotEmpty(t, resp.Response)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessage_HighValueLeadAlert(t *testing.T) {
	// Arrange
	msg := "Attacco ransomware ai server della nostra azienda a Monza, urgente"
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, msg, mock.Anything, "s5").Return(&ai.Response{Message: "Ti mettiamo subito in contatto con un tecnico."}, nil)
	notifier := new(mockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(card notify.Card) bool {
		return card.ThemeColor == notify.ThemeHighValueLead
	})).Return(nil)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, Notifier: notifier, ABTestEnabled: true, SwarmPercentage: 0})

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s5", msg, sessionWith("s5", msg))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 100, resp.LeadScore)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestProcessMessage_SwarmFailureFallsBack(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, "ciao", mock.Anything, "s6").Return(&ai.Response{Message: "Ciao! Come posso aiutarti?"}, nil)
	r := newRouter(t, routing.Config{Swarm: failingSwarm(), AI: generator})

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s6", "ciao", sessionWith("s6", "ciao"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, routing.ArmTraditional, resp.Arm)
	assert.Equal(t, routing.ArmSwarm, resp.Metadata.FallbackFrom)

	m := r.Metrics()
	assert.Equal(t, int64(1), m.Swarm.Count)
	assert.Equal(t, int64(1), m.Swarm.Errors)
	assert.Equal(t, int64(1), m.Traditional.Count)
	assert.Equal(t, int64(0), m.Traditional.Errors)
}

func TestProcessMessage_PanickingSwarmFallsBack(t *testing.T) {
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, "ciao", mock.Anything, "s7").Return(&ai.Response{Message: "Ciao!"}, nil)
	panicking := swarmFunc(func(context.Context, string, string, swarm.ConversationContext) *swarm.Result {
		panic("boom")
	})
	r := newRouter(t, routing.Config{Swarm: panicking, AI: generator})

	resp, err := r.ProcessMessage(context.Background(), "s7", "ciao", sessionWith("s7", "ciao"))

	require.NoError(t, err)
	assert.Equal(t, routing.ArmTraditional, resp.Arm)
}

func TestProcessMessage_BothArmsFail(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, ai.ErrAIUnavailable)
	r := newRouter(t, routing.Config{Swarm: failingSwarm(), AI: generator})

	// Act
	resp, err := r.ProcessMessage(context.Background(), "s8", "ciao", sessionWith("s8", "ciao"))

	// Assert
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, routing.ErrSwarmFailed))
	assert.True(t, errors.Is(err, ai.ErrAIUnavailable))
	m := r.Metrics()
	assert.Equal(t, int64(1), m.Swarm.Errors)
	assert.Equal(t, int64(1), m.Traditional.Errors)
}

func TestProcessMessage_TraditionalWithoutAI(t *testing.T) {
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), ABTestEnabled: true, SwarmPercentage: 0})

	_, err := r.ProcessMessage(context.Background(), "s9", "ciao", sessionWith("s9", "ciao"))

	assert.ErrorIs(t, err, ai.ErrAIUnavailable)
}

func TestProcessMessage_StoresPerformanceRecord(t *testing.T) {
	// Arrange
	store := new(testutil.MockCacheClient)
	store.On("Set", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "perf:s10:")
	}), mock.MatchedBy(func(data []byte) bool {
		var rec models.PerformanceRecord
		return json.Unmarshal(data, &rec) == nil && rec.Mode == "swarm" && rec.SessionID == "s10"
	}), routing.DefaultPerformanceTTL).Return(nil).Once()
	r, err := routing.NewRouter(&routing.Config{Swarm: staticSwarm(0.02), PerformanceStore: store})
	require.NoError(t, err)

	// Act
	_, err = r.ProcessMessage(context.Background(), "s10", "ciao", sessionWith("s10", "ciao"))
	r.Stop()

	// Assert
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAdjustSwarmPercentage_InsufficientData(t *testing.T) {
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), ABTestEnabled: true, SwarmPercentage: 10})

	_, err := r.ProcessMessage(context.Background(), "s11", "ciao", sessionWith("s11", "ciao"))
	require.NoError(t, err)
	adj := r.AdjustSwarmPercentage()

	assert.Equal(t, routing.StatusInsufficientData, adj.Recommendation)
	assert.Equal(t, 10, adj.Current)
	assert.Equal(t, routing.StatusInsufficientData, r.Metrics().Comparison.Status)
}

func TestAdjustSwarmPercentage_ReducesWhenSwarmCostsMore(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&ai.Response{Message: "ok", Cost: 0.001}, nil)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.04), AI: generator, ABTestEnabled: true, SwarmPercentage: 100, MinSampleSize: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.ProcessMessage(ctx, "swarm-session", "ciao", sessionWith("swarm-session", "ciao"))
		require.NoError(t, err)
	}
	r.SetSwarmPercentage(0)
	for i := 0; i < 2; i++ {
		_, err := r.ProcessMessage(ctx, "trad-session", "ciao", sessionWith("trad-session", "ciao"))
		require.NoError(t, err)
	}
	r.SetSwarmPercentage(10)

	// Act
	adj := r.AdjustSwarmPercentage()

	// Assert
	assert.Equal(t, routing.RecommendReduce, adj.Recommendation)
	assert.Equal(t, 10, adj.Previous)
	assert.Equal(t, 5, adj.Current)
	assert.Equal(t, 5, r.SwarmPercentage())
}

func TestAdjustSwarmPercentage_IncreasesWhenSwarmIsFasterAndCheaper(t *testing.T) {
	// Arrange
	generator := new(mockGenerator)
	generator.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(30 * time.Millisecond) }).
		Return(&ai.Response{Message: "ok", Cost: 0.10}, nil)
	r := newRouter(t, routing.Config{Swarm: staticSwarm(0.01), AI: generator, ABTestEnabled: true, SwarmPercentage: 100, MinSampleSize: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := r.ProcessMessage(ctx, "swarm-session", "ciao", sessionWith("swarm-session", "ciao"))
		require.NoError(t, err)
	}
	r.SetSwarmPercentage(0)
	for i := 0; i < 2; i++ {
		_, err := r.ProcessMessage(ctx, "trad-session", "ciao", sessionWith("trad-session", "ciao"))
		require.NoError(t, err)
	}
	r.SetSwarmPercentage(95)

	// Act
	adj := r.AdjustSwarmPercentage()

	// Assert
	assert.Equal(t, routing.RecommendIncrease, adj.Recommendation)
	assert.Equal(t, 100, adj.Current)
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, routing.RecommendIncrease, routing.Recommend(0.5, 0.5))
	assert.Equal(t, routing.RecommendMaintain, routing.Recommend(0.5, 0.2))
	assert.Equal(t, routing.RecommendReduce, routing.Recommend(-0.2, 0.9))
	assert.Equal(t, routing.RecommendReduce, routing.Recommend(0.9, -0.11))
	assert.Equal(t, routing.RecommendMaintain, routing.Recommend(0, 0))
}

func TestRecommend_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		time float64
		cost float64
		want string
	}{
		{"both gains on threshold", 0.30, 0.40, routing.RecommendIncrease},
		{"time just under", 0.29, 0.40, routing.RecommendMaintain},
		{"cost just under", 0.30, 0.39, routing.RecommendMaintain},
		{"time loss on threshold", -0.10, 0, routing.RecommendReduce},
		{"cost loss on threshold", 0, -0.10, routing.RecommendReduce},
		{"loss just inside", -0.09, -0.09, routing.RecommendMaintain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routing.Recommend(tt.time, tt.cost))
		})
	}
}
