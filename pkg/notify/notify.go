package notify

import (
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

// Notifier delivers grade upgrades and quota rejections to end users.
// Delivery is best-effort: a failed notification never fails the
// operation that produced the event.
type Notifier interface {
	reputation.UpgradeNotifier
	wiki.RejectNotifier
}

// Event names on the wire
const (
	EventGradeUpgraded = "grade.upgraded"
	EventEditRejected  = "edit.rejected"
)
