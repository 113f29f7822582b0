package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// WebhookEvent is the payload delivered to the configured endpoint
type WebhookEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// WebhookNotifier POSTs notification events to a single endpoint,
// signing the payload with HMAC-SHA256 when a secret is configured.
type WebhookNotifier struct {
	url     string
	secret  string
	client  *http.Client
	logger  *logrus.Logger
	metrics *observability.Metrics
}

// WebhookOption configures a WebhookNotifier
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient sets the HTTP client used for delivery
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) { n.client = client }
}

// WithWebhookMetrics sets delivery metrics
func WithWebhookMetrics(m *observability.Metrics) WebhookOption {
	return func(n *WebhookNotifier) { n.metrics = m }
}

// NewWebhookNotifier creates a webhook notifier for a target URL
func NewWebhookNotifier(url, secret string, logger *logrus.Logger, opts ...WebhookOption) *WebhookNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	n := &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyUpgrade delivers a grade upgrade event
func (n *WebhookNotifier) NotifyUpgrade(ctx context.Context, event reputation.UpgradeEvent) {
	n.deliver(ctx, EventGradeUpgraded, event)
}

// NotifyReject delivers a quota rejection event
func (n *WebhookNotifier) NotifyReject(ctx context.Context, event wiki.RejectEvent) {
	n.deliver(ctx, EventEditRejected, event)
}

func (n *WebhookNotifier) deliver(ctx context.Context, eventType string, data interface{}) {
	event := WebhookEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	err := n.send(ctx, event)
	status := "success"
	if err != nil {
		status = "failure"
		n.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": event.ID,
			"type":     eventType,
			"url":      n.url,
		}).Warn("Webhook delivery failed")
	}
	if n.metrics != nil {
		n.metrics.NotificationsTotal.WithLabelValues(eventType, status).Inc()
	}
}

func (n *WebhookNotifier) send(ctx context.Context, event WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-APIDock-Event", event.Type)
	req.Header.Set("X-APIDock-Event-ID", event.ID)
	req.Header.Set("X-APIDock-Delivery", time.Now().Format(time.RFC3339))
	if n.secret != "" {
		req.Header.Set("X-APIDock-Signature", Sign(payload, n.secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the HMAC-SHA256 signature header value for a payload
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a payload against its signature header value
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
