package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements ThreadStore on Redis so multiple gateway
// instances share thread state. Each thread is one JSON value with a
// TTL; append is read-modify-write, which is fine for the per-thread
// access pattern (a thread's messages arrive on one device).
type RedisStore struct {
	client   *redis.Client
	maxAge   time.Duration
	maxTurns int
	prefix   string
}

// RedisOption is a functional option for configuring RedisStore.
type RedisOption func(*RedisStore)

// WithRedisMaxAge sets the thread TTL.
func WithRedisMaxAge(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.maxAge = d }
}

// WithRedisMaxTurns sets the per-thread sliding window size.
func WithRedisMaxTurns(n int) RedisOption {
	return func(s *RedisStore) { s.maxTurns = n }
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(p string) RedisOption {
	return func(s *RedisStore) { s.prefix = p }
}

// NewRedisStore creates a Redis-backed thread store and verifies the
// connection.
func NewRedisStore(ctx context.Context, addr string, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	s := &RedisStore{
		client:   client,
		maxAge:   24 * time.Hour,
		maxTurns: 160,
		prefix:   "scamgate:thread:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewRedisStoreWithClient wraps an existing client, for tests.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:   client,
		maxAge:   24 * time.Hour,
		maxTurns: 160,
		prefix:   "scamgate:thread:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(threadID string) string { return s.prefix + threadID }

// Get retrieves a thread by ID. Returns nil, nil if not found.
func (s *RedisStore) Get(ctx context.Context, threadID string) (*ThreadState, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", threadID, err)
	}

	var st ThreadState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadID, err)
	}
	return &st, nil
}

// Save creates or updates a thread.
func (s *RedisStore) Save(ctx context.Context, state *ThreadState) error {
	if state == nil {
		return fmt.Errorf("thread state is nil")
	}
	if state.ThreadID == "" {
		return fmt.Errorf("thread ID is required")
	}

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

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", state.ThreadID, err)
	}
	if err := s.client.Set(ctx, s.key(state.ThreadID), data, s.maxAge).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", state.ThreadID, err)
	}
	return nil
}

// AppendTurn appends one turn record to an existing thread.
func (s *RedisStore) AppendTurn(ctx context.Context, threadID string, turn *TurnRecord) error {
	if turn == nil {
		return fmt.Errorf("turn record is nil")
	}

	st, err := s.Get(ctx, threadID)
	if err != nil {
		return err
	}
	if st == nil {
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

	return s.Save(ctx, st)
}

// Delete removes a thread.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", threadID, err)
	}
	return nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ ThreadStore = (*RedisStore)(nil)
