package httputil

import "context"

// Semaphore bounds concurrent redirect resolutions. Untrusted hosts
// can be made arbitrarily slow, so an unbounded resolver is an easy
// way to exhaust sockets during a burst of reported threads.
type Semaphore struct {
	slots chan struct{}
}

// DefaultProbeConcurrency is the slot count used when no capacity is
// given. Redirect probes are cheap; the cap exists for hostile hosts,
// not throughput.
const DefaultProbeConcurrency = 8

// NewSemaphore creates a semaphore with the given capacity.
// Non-positive capacity falls back to DefaultProbeConcurrency.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = DefaultProbeConcurrency
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is available or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking. Returns false at capacity.
func (s *Semaphore) TryAcquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot. Releasing more than was acquired is a no-op.
func (s *Semaphore) Release() {
	select {
	case <-s.slots:
	default:
	}
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	return len(s.slots)
}
