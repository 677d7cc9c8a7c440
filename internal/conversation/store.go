package conversation

import (
	"context"
	"sort"
	"sync"
)

// Store keeps per-user conversation history, oldest turn first.
type Store interface {
	// History returns the user's turns in chronological order.
	History(ctx context.Context, userID int64) ([]Turn, error)
	// Append adds a turn to the user's history. Returns ErrInvalidRole for
	// roles outside the user/assistant contract.
	Append(ctx context.Context, userID int64, turn Turn) error
	// Clear removes one user's history.
	Clear(ctx context.Context, userID int64) error
	// ClearAll removes every user's history.
	ClearAll(ctx context.Context) error
	// Stats reports stored totals.
	Stats(ctx context.Context) (Stats, error)
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[int64][]Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{history: make(map[int64][]Turn)}
}

// History implements Store.
func (s *MemoryStore) History(_ context.Context, userID int64) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.history[userID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, userID int64, turn Turn) error {
	if !ValidRole(turn.Role) {
		return ErrInvalidRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[userID] = append(s.history[userID], turn)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, userID)
	return nil
}

// ClearAll implements Store.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make(map[int64][]Turn)
	return nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Users: len(s.history)}
	for _, turns := range s.history {
		st.Messages += len(turns)
	}
	return st, nil
}

// Users returns the ids with stored history, sorted, for diagnostics.
func (s *MemoryStore) Users() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.history))
	for id := range s.history {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
