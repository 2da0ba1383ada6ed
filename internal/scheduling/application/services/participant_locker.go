package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ParticipantLocker serialises writers booking time for the same
// participants. The returned function releases every lock taken.
type ParticipantLocker interface {
	Lock(ctx context.Context, participantIDs ...uuid.UUID) (func(), error)
}

// OrderParticipants returns the distinct ids in a stable order. Locks are
// always taken in this order.
func OrderParticipants(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})
	return ordered
}

// WaitError maps a failed wait to ErrLockTimeout when the lock's own
// deadline expired, and to the parent's error otherwise.
func WaitError(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrLockTimeout
	}
	return err
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is a keyed mutex for a single process.
type MemoryLocker struct {
	mu          sync.Mutex
	locks       map[uuid.UUID]*keyLock
	waitTimeout time.Duration
}

// NewMemoryLocker creates an in-process locker. A zero waitTimeout waits
// until ctx is done.
func NewMemoryLocker(waitTimeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		locks:       make(map[uuid.UUID]*keyLock),
		waitTimeout: waitTimeout,
	}
}

// Lock acquires every participant lock or none.
func (l *MemoryLocker) Lock(ctx context.Context, participantIDs ...uuid.UUID) (func(), error) {
	waitCtx := ctx
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	ordered := OrderParticipants(participantIDs)
	held := make([]uuid.UUID, 0, len(ordered))
	for _, id := range ordered {
		if err := l.acquire(waitCtx, id); err != nil {
			l.releaseAll(held)
			return nil, fmt.Errorf("lock participant %s: %w", id, WaitError(ctx, err))
		}
		held = append(held, id)
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *MemoryLocker) acquire(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	k, ok := l.locks[id]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(id, false)
		return ctx.Err()
	}
}

func (l *MemoryLocker) releaseAll(ids []uuid.UUID) {
	for i := len(ids) - 1; i >= 0; i-- {
		l.release(ids[i], true)
	}
}

func (l *MemoryLocker) release(id uuid.UUID, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := l.locks[id]
	if held {
		<-k.ch
	}
	k.refs--
	if k.refs == 0 {
		delete(l.locks, id)
	}
}

// size reports how many keys are tracked.
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
