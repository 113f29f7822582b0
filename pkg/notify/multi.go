package notify

import (
	"context"

	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// MultiNotifier fans an event out to several notifiers in order
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that delivers to all of its members
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// NotifyUpgrade delivers the upgrade to every member
func (m *MultiNotifier) NotifyUpgrade(ctx context.Context, event reputation.UpgradeEvent) {
	for _, n := range m.notifiers {
		n.NotifyUpgrade(ctx, event)
	}
}

// NotifyReject delivers the rejection to every member
func (m *MultiNotifier) NotifyReject(ctx context.Context, event wiki.RejectEvent) {
	for _, n := range m.notifiers {
		n.NotifyReject(ctx, event)
	}
}
