package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itera/chatbot-service/internal/domain/models"
	"github.com/itera/chatbot-service/internal/services/notify"
)

func TestEscalationCard_Emergency(t *testing.T) {
	// Arrange
	lead := &models.LeadRecord{
		SessionID: "chat_1",
		Phone:     "3331234567",
		Intent:    "emergenza",
		Priority:  "critical",
		Message:   "server down",
	}

	// Act
	card := notify.EscalationCard(lead)

	// Assert
	assert.Equal(t, "MessageCard", card.Type)
	assert.Equal(t, notify.ThemeEmergency, card.ThemeColor)
	require.Len(t, card.Sections, 1)
	facts := card.Sections[0].Facts
	assert.Equal(t, "Priorità", facts[5].Name)
	assert.Equal(t, "EMERGENZA", facts[5].Value)
	assert.Equal(t, "3331234567", facts[1].Value)
	assert.Equal(t, "Non specificata", facts[2].Value)
	require.Len(t, card.PotentialAction, 1)
	assert.Equal(t, "tel:3331234567", card.PotentialAction[0].Actions[0].Targets[0].URI)
}

func TestEscalationCard_RegularLead(t *testing.T) {
	card := notify.EscalationCard(&models.LeadRecord{Intent: "preventivo", Priority: "high"})

	assert.Equal(t, notify.ThemeLead, card.ThemeColor)
	assert.Equal(t, "NORMALE", card.Sections[0].Facts[5].Value)
}

func TestLeadAlertCard(t *testing.T) {
	tests := []struct {
		name  string
		score int
		theme string
	}{
		{"high value", 90, notify.ThemeHighValueLead},
		{"threshold", 85, notify.ThemeHighValueLead},
		{"below threshold", 70, notify.ThemeLeadAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := notify.LeadAlertCard(tt.score, strings.Repeat("a", 150))

			assert.Equal(t, tt.theme, card.ThemeColor)
			facts := card.Sections[0].Facts
			assert.Len(t, facts[1].Value, 100)
			assert.Equal(t, "Contattare entro 1 ora", facts[2].Value)
		})
	}
}

func TestWebhookNotifier_PostsCard(t *testing.T) {
	// Arrange
	var received notify.Card
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := notify.NewWebhookNotifier(&notify.WebhookConfig{URL: server.URL})
	require.NoError(t, err)

	// Act
	err = n.Notify(context.Background(), notify.LeadAlertCard(88, "firewall per 60 pc"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "🔥 Lead Score: 88/100", received.Summary)
}

func TestWebhookNotifier_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n, err := notify.NewWebhookNotifier(&notify.WebhookConfig{URL: server.URL})
	require.NoError(t, err)

	err = n.Notify(context.Background(), notify.LeadAlertCard(50, "x"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewWebhookNotifier_RequiresURL(t *testing.T) {
	_, err := notify.NewWebhookNotifier(&notify.WebhookConfig{})
	assert.Error(t, err)

	_, err = notify.NewWebhookNotifier(nil)
	assert.Error(t, err)
}

func TestDispatcher_DoesNotBlockCaller(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	var delivered atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := notify.NewWebhookNotifier(&notify.WebhookConfig{URL: server.URL})
	require.NoError(t, err)
	d := notify.NewDispatcher(n, notify.DispatcherConfig{QueueSize: 4, Workers: 1, Timeout: 5 * time.Second})

	// Act
	start := time.Now()
	err = d.Notify(context.Background(), notify.LeadAlertCard(90, "urgente"))
	elapsed := time.Since(start)

	// Assert
	require.NoError(t, err)
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, int32(0), delivered.Load())

	close(release)
	d.Stop()
	assert.Equal(t, int32(1), delivered.Load())
}

func TestDispatcher_WebhookFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := notify.NewWebhookNotifier(&notify.WebhookConfig{URL: server.URL})
	require.NoError(t, err)
	d := notify.NewDispatcher(n, notify.DispatcherConfig{})

	assert.NoError(t, d.Notify(context.Background(), notify.LeadAlertCard(90, "x")))
	d.Stop()
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, notify.NoopNotifier{}.Notify(context.Background(), notify.LeadAlertCard(1, "x")))
}
