// Package session tracks conversation threads across analysis calls so
// the engine can score the accumulated thread instead of one message
// at a time. Single-node deployments use the in-memory store; the
// Redis store shares threads across instances.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TurnRecord is one appended message of a tracked thread.
type TurnRecord struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ThreadState is the stored state of one conversation thread.
type ThreadState struct {
	ThreadID   string       `json:"thread_id"`
	CreatedAt  time.Time    `json:"created_at"`
	LastSeenAt time.Time    `json:"last_seen_at"`
	Turns      []TurnRecord `json:"turns"`
	MaxTurns   int          `json:"max_turns"`
	TurnCount  int          `json:"turn_count"` // total ever appended, survives trimming
	LastScore  float64      `json:"last_score"`
	LastRisk   string       `json:"last_risk"`
}

// Text joins the retained turns into the thread text the engine
// consumes.
func (st *ThreadState) Text() string {
	if st == nil || len(st.Turns) == 0 {
		return ""
	}
	out := ""
	for i, t := range st.Turns {
		if i > 0 {
			out += "\n"
		}
		out += t.Text
	}
	return out
}

// ThreadStore is pluggable thread storage.
type ThreadStore interface {
	// Get retrieves a thread by ID. Returns nil, nil if not found.
	Get(ctx context.Context, threadID string) (*ThreadState, error)

	// Save creates or updates a thread.
	Save(ctx context.Context, state *ThreadState) error

	// AppendTurn appends one turn to an existing thread.
	AppendTurn(ctx context.Context, threadID string, turn *TurnRecord) error

	// Delete removes a thread.
	Delete(ctx context.Context, threadID string) error
}

// NewThreadID returns a fresh thread identifier.
func NewThreadID() string { return uuid.NewString() }

// InMemoryStore implements ThreadStore with TTL-based cleanup.
type InMemoryStore struct {
	threads map[string]*ThreadState
	mu      sync.RWMutex

	maxAge     time.Duration
	cleanupTTL time.Duration
	maxTurns   int

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// StoreOption is a functional option for configuring InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithMaxAge sets the thread TTL.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *InMemoryStore) { s.maxAge = d }
}

// WithCleanupInterval sets how often the cleanup routine runs.
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(s *InMemoryStore) { s.cleanupTTL = d }
}

// WithMaxTurns sets the per-thread sliding window size.
func WithMaxTurns(n int) StoreOption {
	return func(s *InMemoryStore) { s.maxTurns = n }
}

// NewInMemoryStore creates an in-memory thread store and starts its
// cleanup goroutine.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		threads:     make(map[string]*ThreadState),
		maxAge:      24 * time.Hour,
		cleanupTTL:  5 * time.Minute,
		maxTurns:    160,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()
	return s
}

// Get retrieves a thread by ID. Returns nil, nil if not found.
func (s *InMemoryStore) Get(_ context.Context, threadID string) (*ThreadState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.threads[threadID]
	if !ok {
		return nil, nil
	}
	if time.Since(st.LastSeenAt) > s.maxAge {
		// Stale thread, treated as not found. Actual removal happens
		// in cleanupLoop.
		return nil, nil
	}
	return st, nil
}

// Save creates or updates a thread.
func (s *InMemoryStore) Save(_ context.Context, state *ThreadState) error {
	if state == nil {
		return fmt.Errorf("thread state is nil")
	}
	if state.ThreadID == "" {
		return fmt.Errorf("thread ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	if state.LastSeenAt.IsZero() {
		state.LastSeenAt = now
	}
	if state.MaxTurns == 0 {
		state.MaxTurns = s.maxTurns
	}

	s.threads[state.ThreadID] = state
	return nil
}

// AppendTurn appends one turn record to an existing thread.
func (s *InMemoryStore) AppendTurn(_ context.Context, threadID string, turn *TurnRecord) error {
	if turn == nil {
		return fmt.Errorf("turn record is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.threads[threadID]
	if !ok {
		return fmt.Errorf("thread not found: %s", threadID)
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	st.Turns = append(st.Turns, *turn)
	if len(st.Turns) > st.MaxTurns {
		st.Turns = st.Turns[len(st.Turns)-st.MaxTurns:]
	}
	st.LastSeenAt = turn.Timestamp
	st.TurnCount++
	return nil
}

// Delete removes a thread.
func (s *InMemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// Close stops the cleanup goroutine.
func (s *InMemoryStore) Close() {
	s.cleanupOnce.Do(func() { close(s.stopCleanup) })
}

func (s *InMemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, st := range s.threads {
		if now.Sub(st.LastSeenAt) > s.maxAge {
			delete(s.threads, id)
		}
	}
}

// Stats returns current store statistics.
func (s *InMemoryStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{ThreadCount: len(s.threads)}
	for _, st := range s.threads {
		stats.TotalTurns += st.TurnCount
		stats.RetainedTurns += len(st.Turns)
	}
	return stats
}

// StoreStats contains thread store statistics.
type StoreStats struct {
	ThreadCount   int `json:"thread_count"`
	TotalTurns    int `json:"total_turns"`
	RetainedTurns int `json:"retained_turns"`
}

var _ ThreadStore = (*InMemoryStore)(nil)
