package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// LogNotifier writes notifications to the application log. It is the
// default sink when no webhook is configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogNotifier{logger: logger}
}

// NotifyUpgrade logs a grade upgrade
func (n *LogNotifier) NotifyUpgrade(ctx context.Context, event reputation.UpgradeEvent) {
	n.logger.WithFields(logrus.Fields{
		"event":   EventGradeUpgraded,
		"user_id": event.UserID,
		"from":    string(event.From),
		"to":      string(event.To),
		"score":   event.Score,
	}).Info("User grade upgraded")
}

// NotifyReject logs a quota rejection
func (n *LogNotifier) NotifyReject(ctx context.Context, event wiki.RejectEvent) {
	fields := logrus.Fields{
		"event":    EventEditRejected,
		"user_id":  event.UserID,
		"api_name": event.APIName,
		"tier":     string(event.Tier),
	}
	if event.Reason != nil {
		fields["bound"] = string(event.Reason.Kind)
		fields["delta"] = event.Reason.Delta
		fields["allowed_chars"] = event.Reason.AllowedChars
	}
	n.logger.WithFields(fields).Info("Wiki edit rejected over quota")
}
