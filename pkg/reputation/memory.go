package reputation

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory. It serializes the
// read-modify-append sequence per user with a mutex, which makes it suitable
// for tests and single-node development deployments.
type MemoryStore struct {
	mu     sync.Mutex
	scores map[int64]int64
	events map[int64][]ActivityEvent

	// failNext forces the next append to fail, for failure-mode tests.
	failNext error
}

// NewMemoryStore creates an empty in-memory ledger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[int64]int64),
		events: make(map[int64][]ActivityEvent),
	}
}

// FailNextAppend makes the next AppendEvent call return err without
// recording anything
func (s *MemoryStore) FailNextAppend(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// ReadScore returns the user's running total
func (s *MemoryStore) ReadScore(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[userID], nil
}

// AppendEvent appends the event and advances the running total atomically
func (s *MemoryStore) AppendEvent(ctx context.Context, ev *ActivityEvent) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return 0, 0, err
	}

	previous := s.scores[ev.UserID]
	current := previous + ev.Points
	if current < 0 {
		current = 0
	}
	ev.Points = current - previous

	s.scores[ev.UserID] = current
	s.events[ev.UserID] = append(s.events[ev.UserID], *ev)
	return previous, current, nil
}

// ListEvents returns the user's events, newest first
func (s *MemoryStore) ListEvents(ctx context.Context, userID int64, limit, offset int) ([]ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.events[userID]
	out := make([]ActivityEvent, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SumPoints recomputes the user's total from the event log
func (s *MemoryStore) SumPoints(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, ev := range s.events[userID] {
		sum += ev.Points
	}
	return sum, nil
}

// UserIDs returns every user with a score record
func (s *MemoryStore) UserIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.scores))
	for id := range s.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ResetScore overwrites the running total for a user
func (s *MemoryStore) ResetScore(ctx context.Context, userID int64, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = score
	return nil
}
