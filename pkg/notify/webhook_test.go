package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

type receivedDelivery struct {
	body      []byte
	signature string
	eventType string
}

func TestWebhookNotifierSignsAndDelivers(t *testing.T) {
	var mu sync.Mutex
	var deliveries []receivedDelivery

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		mu.Lock()
		deliveries = append(deliveries, receivedDelivery{
			body:      body,
			signature: r.Header.Get("X-APIDock-Signature"),
			eventType: r.Header.Get("X-APIDock-Event"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "test-secret", logrus.New())

	notifier.NotifyUpgrade(context.Background(), reputation.UpgradeEvent{
		UserID: 7,
		From:   reputation.TierBronze,
		To:     reputation.TierSilver,
		Score:  55,
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deliveries, 1)
	d := deliveries[0]

	assert.Equal(t, EventGradeUpgraded, d.eventType)
	assert.True(t, VerifySignature(d.body, d.signature, "test-secret"))
	assert.False(t, VerifySignature(d.body, d.signature, "wrong-secret"))

	var event WebhookEvent
	require.NoError(t, json.Unmarshal(d.body, &event))
	assert.Equal(t, EventGradeUpgraded, event.Type)
	assert.NotEmpty(t, event.ID)
}

func TestWebhookNotifierRejectEvent(t *testing.T) {
	var mu sync.Mutex
	var bodies [][]byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, "", logrus.New())

	notifier.NotifyReject(context.Background(), wiki.RejectEvent{
		UserID:  7,
		APIName: "stripe",
		Tier:    reputation.TierBronze,
		Reason: &wiki.QuotaExceededError{
			Kind:         wiki.BoundAbsolute,
			Delta:        500,
			AllowedChars: 300,
		},
	})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)

	var event WebhookEvent
	require.NoError(t, json.Unmarshal(bodies[0], &event))
	assert.Equal(t, EventEditRejected, event.Type)

	data, err := json.Marshal(event.Data)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"absolute"`)
	assert.Contains(t, string(data), `"stripe"`)
}

func TestWebhookNotifierSwallowsDeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	notifier := NewWebhookNotifier(server.URL, "", logger)

	// Must not panic or propagate the failure
	notifier.NotifyUpgrade(context.Background(), reputation.UpgradeEvent{
		UserID: 7,
		From:   reputation.TierBronze,
		To:     reputation.TierSilver,
	})
}

func TestMultiNotifierFansOut(t *testing.T) {
	var mu sync.Mutex
	count := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	multi := NewMultiNotifier(
		NewWebhookNotifier(server.URL, "", logger),
		NewWebhookNotifier(server.URL, "", logger),
		NewLogNotifier(logger),
	)

	multi.NotifyUpgrade(context.Background(), reputation.UpgradeEvent{
		UserID: 7,
		From:   reputation.TierSilver,
		To:     reputation.TierGold,
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}
