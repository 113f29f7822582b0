package reputation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apidockhq/apidock/pkg/observability"
)

// AwardResult reports the outcome of a point award
type AwardResult struct {
	Event         ActivityEvent `json:"event"`
	PreviousScore int64         `json:"previous_score"`
	NewScore      int64         `json:"new_score"`
	PreviousTier  Tier          `json:"previous_tier"`
	NewTier       Tier          `json:"new_tier"`
	Upgrade       *UpgradeEvent `json:"upgrade,omitempty"`
	UsedFallback  bool          `json:"-"`
}

// Ledger records point-earning events and exposes running totals and grades.
// It is the sole owner of score mutation: every caller that awards points
// goes through Award, which serializes the read-modify-append per user via
// the store, invalidates the score cache synchronously, and signals tier
// upgrades. All other methods are read paths.
type Ledger struct {
	store    Store
	points   *PointsConfig
	calc     *Calculator
	cache    *ScoreCache
	notifier UpgradeNotifier
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithScoreCache attaches a read cache for running totals
func WithScoreCache(cache *ScoreCache) LedgerOption {
	return func(l *Ledger) { l.cache = cache }
}

// WithUpgradeNotifier attaches a collaborator that receives upgrade events
func WithUpgradeNotifier(n UpgradeNotifier) LedgerOption {
	return func(l *Ledger) { l.notifier = n }
}

// WithLogger sets the ledger's logger
func WithLogger(logger *observability.Logger) LedgerOption {
	return func(l *Ledger) { l.logger = logger }
}

// WithMetrics attaches Prometheus metrics
func WithMetrics(m *observability.Metrics) LedgerOption {
	return func(l *Ledger) { l.metrics = m }
}

// NewLedger creates a point ledger
func NewLedger(store Store, points *PointsConfig, calc *Calculator, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:  store,
		points: points,
		calc:   calc,
		logger: observability.NewLogger(observability.InfoLevel, nil),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Award records one logical point-earning action for a user and returns the
// resulting scores and tiers. Each call appends exactly one event; callers
// are responsible for not invoking it twice for the same real-world action.
// If the underlying append fails, the cumulative score is unchanged and the
// failure is surfaced; the ledger never retries persistence itself.
func (l *Ledger) Award(ctx context.Context, userID int64, isAdmin bool, action ActionType) (*AwardResult, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", ErrInvalidInput, userID)
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, action)
	}

	points, usedFallback := l.points.PointsFor(action)

	ev := ActivityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Points:    points,
		CreatedAt: time.Now().UTC(),
	}

	previous, current, err := l.store.AppendEvent(ctx, &ev)
	if err != nil {
		return nil, fmt.Errorf("failed to award points for %q: %w", action, err)
	}

	// Invalidate before anyone can observe the new total through the cache.
	if l.cache != nil {
		if err := l.cache.Invalidate(ctx, userID); err != nil {
			l.logger.WithError(err).WithField("user_id", userID).
				Warn("score cache invalidation failed; readers fall back to the store")
		}
	}

	previousTier, err := l.calc.GradeOf(previous, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to grade previous score: %w", err)
	}
	newTier, err := l.calc.GradeOf(current, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to grade new score: %w", err)
	}

	upgrade, err := CheckUpgrade(userID, previousTier, newTier, current)
	if err != nil {
		return nil, err
	}
	if upgrade != nil && l.notifier != nil {
		l.notifier.NotifyUpgrade(ctx, *upgrade)
	}

	if l.metrics != nil {
		l.metrics.AwardsTotal.WithLabelValues(string(action)).Inc()
		if upgrade != nil {
			l.metrics.UpgradesTotal.WithLabelValues(string(upgrade.From), string(upgrade.To)).Inc()
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"action":  string(action),
		"points":  ev.Points,
		"score":   current,
	}).Debug("points awarded")

	return &AwardResult{
		Event:         ev,
		PreviousScore: previous,
		NewScore:      current,
		PreviousTier:  previousTier,
		NewTier:       newTier,
		Upgrade:       upgrade,
		UsedFallback:  usedFallback,
	}, nil
}

// Score returns a user's running total, served from the cache when possible
func (l *Ledger) Score(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be positive, got %d", ErrInvalidInput, userID)
	}

	if l.cache != nil {
		if score, ok := l.cache.Get(ctx, userID); ok {
			if l.metrics != nil {
				l.metrics.CacheHitsTotal.WithLabelValues("score").Inc()
			}
			return score, nil
		}
		if l.metrics != nil {
			l.metrics.CacheMissesTotal.WithLabelValues("score").Inc()
		}
	}

	score, err := l.store.ReadScore(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read score: %w", err)
	}
	if l.cache != nil {
		l.cache.Set(ctx, userID, score)
	}
	return score, nil
}

// Grade returns a user's current tier and threshold progress
func (l *Ledger) Grade(ctx context.Context, userID int64, isAdmin bool) (Tier, Progress, error) {
	score, err := l.Score(ctx, userID)
	if err != nil {
		return "", Progress{}, err
	}
	tier, err := l.calc.GradeOf(score, isAdmin)
	if err != nil {
		return "", Progress{}, err
	}
	progress, err := l.calc.ProgressToNext(score)
	if err != nil {
		return "", Progress{}, err
	}
	return tier, progress, nil
}

// Events returns a user's activity events, newest first
func (l *Ledger) Events(ctx context.Context, userID int64, limit, offset int) ([]ActivityEvent, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", ErrInvalidInput, userID)
	}
	return l.store.ListEvents(ctx, userID, limit, offset)
}

// Calculator returns the ledger's grade calculator
func (l *Ledger) Calculator() *Calculator {
	return l.calc
}

// ReconcileReport describes one user's reconciliation outcome
type ReconcileReport struct {
	UserID      int64 `json:"user_id"`
	CachedScore int64 `json:"cached_score"`
	EventSum    int64 `json:"event_sum"`
	Drift       int64 `json:"drift"`
	Repaired    bool  `json:"repaired"`
}

// Reconcile compares a user's cached running total with the sum of their
// event log and repairs the cache when they disagree. The event log wins.
func (l *Ledger) Reconcile(ctx context.Context, userID int64) (*ReconcileReport, error) {
	cached, err := l.store.ReadScore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached score: %w", err)
	}
	sum, err := l.store.SumPoints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum events: %w", err)
	}

	report := &ReconcileReport{
		UserID:      userID,
		CachedScore: cached,
		EventSum:    sum,
		Drift:       cached - sum,
	}
	if report.Drift == 0 {
		return report, nil
	}

	l.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"cached":  cached,
		"sum":     sum,
	}).Error("score drift detected; repairing from event log")
	if l.metrics != nil {
		l.metrics.ScoreDriftTotal.Inc()
	}

	if err := l.store.ResetScore(ctx, userID, sum); err != nil {
		return report, fmt.Errorf("failed to repair score: %w", err)
	}
	if l.cache != nil {
		if err := l.cache.Invalidate(ctx, userID); err != nil {
			l.logger.WithError(err).Warn("score cache invalidation failed after repair")
		}
	}
	report.Repaired = true
	return report, nil
}
