package reputation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconcilerRejectsBadSchedule(t *testing.T) {
	ledger, store := newTestLedger(t)
	_, err := NewReconciler(ledger, store, "not a cron expression", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reconciliation schedule")
}

func TestReconcileAllRepairsEveryDriftedUser(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := ledger.Award(ctx, id, false, ActionCSVUpload)
		require.NoError(t, err)
	}
	// Corrupt two of the three running totals.
	require.NoError(t, store.ResetScore(ctx, 1, 100))
	require.NoError(t, store.ResetScore(ctx, 3, 0))

	rec, err := NewReconciler(ledger, store, "0 3 * * *", nil)
	require.NoError(t, err)
	require.NoError(t, rec.ReconcileAll(ctx))

	for _, id := range []int64{1, 2, 3} {
		score, err := ledger.Score(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(5), score, "user %d", id)
	}
}
