package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// userLocks serialises work per user. Entries are dropped once no goroutine
// holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	sem  chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uuid.UUID]*userLock)}
}

// acquire blocks until the user's lock is held or ctx is done.
func (l *userLocks) acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, lock)
		return nil, ctx.Err()
	}

	return func() {
		<-lock.sem
		l.release(userID, lock)
	}, nil
}

func (l *userLocks) release(userID uuid.UUID, lock *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
