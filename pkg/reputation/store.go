package reputation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store persists the append-only activity event log and the cached running
// total per user. AppendEvent must be atomic: either both the event and the
// new total are visible, or neither is. The event log is the source of truth;
// the running total is a cache reconcilable via SumPoints.
type Store interface {
	// ReadScore returns the user's cached running total. Unknown users have
	// a score of zero.
	ReadScore(ctx context.Context, userID int64) (int64, error)

	// AppendEvent appends the event and advances the running total in one
	// atomic step, returning the totals before and after. The stored total
	// never goes negative: the event's Points field is rewritten to the
	// delta actually applied after clamping.
	AppendEvent(ctx context.Context, ev *ActivityEvent) (previous, current int64, err error)

	// ListEvents returns the user's events, newest first.
	ListEvents(ctx context.Context, userID int64, limit, offset int) ([]ActivityEvent, error)

	// SumPoints recomputes the user's total from the event log.
	SumPoints(ctx context.Context, userID int64) (int64, error)

	// UserIDs returns every user with a score record.
	UserIDs(ctx context.Context) ([]int64, error)

	// ResetScore overwrites the cached running total (reconciliation repair).
	ResetScore(ctx context.Context, userID int64, score int64) error
}

// appendRetries bounds the optimistic concurrency retry loop in AppendEvent.
const appendRetries = 5

// SQLStore implements Store on database/sql. The SQL is deliberately
// driver-neutral (ordinal placeholders, timestamps bound from Go, no vendor
// functions) so the same store runs on PostgreSQL and SQLite.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQL-backed ledger store
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the ledger tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_scores (
			user_id BIGINT PRIMARY KEY,
			activity_score BIGINT NOT NULL DEFAULT 0 CHECK (activity_score >= 0),
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activity_events (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			points BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_events_user
			ON activity_events (user_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run ledger migration: %w", err)
		}
	}
	return nil
}

// ReadScore returns the cached running total for a user
func (s *SQLStore) ReadScore(ctx context.Context, userID int64) (int64, error) {
	var score int64
	err := s.db.QueryRowContext(ctx,
		`SELECT activity_score FROM user_scores WHERE user_id = $1`, userID,
	).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read score: %w", err)
	}
	return score, nil
}

// AppendEvent appends an activity event and advances the running total.
// The read-modify-append sequence is serialized per user with an optimistic
// compare-and-swap on the current total, retried a bounded number of times,
// so concurrent awards to the same user never lose an increment.
func (s *SQLStore) AppendEvent(ctx context.Context, ev *ActivityEvent) (int64, int64, error) {
	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		previous, current, err := s.tryAppend(ctx, ev)
		if err == nil {
			return previous, current, nil
		}
		if err != errScoreConflict {
			return 0, 0, err
		}
		lastErr = err
	}
	return 0, 0, fmt.Errorf("failed to append event after %d attempts: %w", appendRetries, lastErr)
}

// errScoreConflict signals a lost CAS race; the append is retried.
var errScoreConflict = fmt.Errorf("concurrent score update")

func (s *SQLStore) tryAppend(ctx context.Context, ev *ActivityEvent) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_scores (user_id, activity_score, updated_at)
		 VALUES ($1, 0, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		ev.UserID, now,
	); err != nil {
		return 0, 0, fmt.Errorf("failed to ensure score row: %w", err)
	}

	var previous int64
	if err := tx.QueryRowContext(ctx,
		`SELECT activity_score FROM user_scores WHERE user_id = $1`, ev.UserID,
	).Scan(&previous); err != nil {
		return 0, 0, fmt.Errorf("failed to read score: %w", err)
	}

	current := previous + ev.Points
	if current < 0 {
		current = 0
	}
	applied := current - previous

	result, err := tx.ExecContext(ctx,
		`UPDATE user_scores SET activity_score = $1, updated_at = $2
		 WHERE user_id = $3 AND activity_score = $4`,
		current, now, ev.UserID, previous,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to update score: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return 0, 0, errScoreConflict
	}

	ev.Points = applied
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO activity_events (id, user_id, action, points, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.UserID, string(ev.Action), applied, ev.CreatedAt,
	); err != nil {
		return 0, 0, fmt.Errorf("failed to insert activity event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit event: %w", err)
	}
	return previous, current, nil
}

// ListEvents returns the user's activity events, newest first
func (s *SQLStore) ListEvents(ctx context.Context, userID int64, limit, offset int) ([]ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, action, points, created_at
		 FROM activity_events
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity events: %w", err)
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var ev ActivityEvent
		var action string
		if err := rows.Scan(&ev.ID, &ev.UserID, &action, &ev.Points, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		ev.Action = ActionType(action)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SumPoints recomputes a user's total from the event log
func (s *SQLStore) SumPoints(ctx context.Context, userID int64) (int64, error) {
	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(points) FROM activity_events WHERE user_id = $1`, userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum activity events: %w", err)
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Int64, nil
}

// UserIDs returns every user with a score record
func (s *SQLStore) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM user_scores ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetScore overwrites the cached running total for a user
func (s *SQLStore) ResetScore(ctx context.Context, userID int64, score int64) error {
	if score < 0 {
		return fmt.Errorf("%w: score must be non-negative, got %d", ErrInvalidInput, score)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_scores SET activity_score = $1, updated_at = $2 WHERE user_id = $3`,
		score, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset score: %w", err)
	}
	return nil
}
