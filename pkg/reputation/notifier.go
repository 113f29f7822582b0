package reputation

import (
	"context"
	"fmt"
	"time"
)

// UpgradeNotifier receives upgrade events for delivery to the notification
// and UI layers. Implementations must not block the award path for long;
// delivery retries belong to the implementation, not the ledger.
type UpgradeNotifier interface {
	NotifyUpgrade(ctx context.Context, ev UpgradeEvent)
}

// CheckUpgrade compares two tiers and returns an upgrade event only on a
// strict increase in privilege. Decreases and no-changes yield nil. The
// comparison is pure; it performs no notification itself.
func CheckUpgrade(userID int64, previous, next Tier, score int64) (*UpgradeEvent, error) {
	if !previous.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, previous)
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, next)
	}
	if next.Rank() <= previous.Rank() {
		return nil, nil
	}
	return &UpgradeEvent{
		UserID: userID,
		From:   previous,
		To:     next,
		Score:  score,
		At:     time.Now().UTC(),
	}, nil
}
