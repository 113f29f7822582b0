package reputation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/apidockhq/apidock/pkg/observability"
)

// ScoreCache is a two-level read cache for running totals: an in-process LRU
// in front of Redis. The stored score is strictly a cache of the event log;
// the ledger invalidates it synchronously with every score mutation, never
// asynchronously, so readers never derive a grade from a stale total.
type ScoreCache struct {
	redis  *redis.Client
	l1     *lru.Cache[int64, cachedScore]
	ttl    time.Duration
	logger *observability.Logger
}

type cachedScore struct {
	score     int64
	expiresAt time.Time
}

// NewScoreCache creates a score cache. The Redis client is optional; with a
// nil client only the in-process level is used.
func NewScoreCache(client *redis.Client, l1Size int, ttl time.Duration, logger *observability.Logger) (*ScoreCache, error) {
	if l1Size <= 0 {
		l1Size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	l1, err := lru.New[int64, cachedScore](l1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create score cache: %w", err)
	}

	return &ScoreCache{
		redis:  client,
		l1:     l1,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func scoreKey(userID int64) string {
	return fmt.Sprintf("reputation:score:%d", userID)
}

// Get returns the cached score for a user and whether it was present
func (c *ScoreCache) Get(ctx context.Context, userID int64) (int64, bool) {
	if entry, ok := c.l1.Get(userID); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.score, true
		}
		c.l1.Remove(userID)
	}

	if c.redis == nil {
		return 0, false
	}

	value, err := c.redis.Get(ctx, scoreKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("score cache read failed")
		}
		return 0, false
	}

	score, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// Corrupt entry; drop it rather than serve garbage.
		c.redis.Del(ctx, scoreKey(userID))
		return 0, false
	}

	c.l1.Add(userID, cachedScore{score: score, expiresAt: time.Now().Add(c.ttl)})
	return score, true
}

// Set stores a score in both cache levels
func (c *ScoreCache) Set(ctx context.Context, userID int64, score int64) {
	c.l1.Add(userID, cachedScore{score: score, expiresAt: time.Now().Add(c.ttl)})
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, scoreKey(userID), strconv.FormatInt(score, 10), c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("score cache write failed")
	}
}

// Invalidate removes a user's score from both cache levels. Called
// synchronously after every score mutation.
func (c *ScoreCache) Invalidate(ctx context.Context, userID int64) error {
	c.l1.Remove(userID)
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, scoreKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate score cache: %w", err)
	}
	return nil
}
