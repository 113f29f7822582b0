package reputation

import (
	"sync"

	"github.com/apidockhq/apidock/pkg/observability"
)

// FallbackPoints is awarded when an action type has no configured value.
// The fallback is never applied silently: every use is logged and reported
// through the fallback hook so configuration gaps get fixed.
const FallbackPoints int64 = 1

// DefaultPointValues returns the observed default point value per action
func DefaultPointValues() map[ActionType]int64 {
	return map[ActionType]int64{
		ActionAPISubmission:    1,
		ActionAPIApproved:      5,
		ActionWikiEdit:         1,
		ActionWikiEditApproved: 2,
		ActionCommentPosted:    1,
		ActionCSVUpload:        5,
		ActionCSVUpdate:        2,
		ActionPenalty:          -5,
	}
}

// PointsConfig maps action types to point values. The mapping may be partial;
// missing actions fall back to FallbackPoints. Replace supports hot reload,
// so lookups are guarded by a read lock.
type PointsConfig struct {
	mu         sync.RWMutex
	points     map[ActionType]int64
	logger     *observability.Logger
	onFallback func(action ActionType)
}

// PointsOption configures a PointsConfig
type PointsOption func(*PointsConfig)

// WithFallbackHook registers a callback invoked whenever a lookup falls back
// to the default point value
func WithFallbackHook(fn func(action ActionType)) PointsOption {
	return func(c *PointsConfig) {
		c.onFallback = fn
	}
}

// NewPointsConfig creates a PointsConfig from an action-to-points mapping.
// A nil mapping starts from the documented defaults.
func NewPointsConfig(points map[ActionType]int64, logger *observability.Logger, opts ...PointsOption) *PointsConfig {
	if points == nil {
		points = DefaultPointValues()
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	c := &PointsConfig{
		points: copyPoints(points),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PointsFor returns the point value for an action and whether the fallback
// default was used because no value was configured
func (c *PointsConfig) PointsFor(action ActionType) (points int64, usedFallback bool) {
	c.mu.RLock()
	points, ok := c.points[action]
	c.mu.RUnlock()
	if ok {
		return points, false
	}

	c.logger.WithField("action", string(action)).
		Warnf("no point value configured, falling back to %d", FallbackPoints)
	if c.onFallback != nil {
		c.onFallback(action)
	}
	return FallbackPoints, true
}

// Replace swaps in a new action-to-points mapping (hot reload)
func (c *PointsConfig) Replace(points map[ActionType]int64) {
	if points == nil {
		return
	}
	c.mu.Lock()
	c.points = copyPoints(points)
	c.mu.Unlock()
	c.logger.WithField("actions", len(points)).Info("action point values reloaded")
}

// Snapshot returns a copy of the current mapping
func (c *PointsConfig) Snapshot() map[ActionType]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyPoints(c.points)
}

func copyPoints(in map[ActionType]int64) map[ActionType]int64 {
	out := make(map[ActionType]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
