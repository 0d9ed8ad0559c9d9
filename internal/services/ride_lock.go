package services

import "sync"

// RideLocks hands out one mutex per ride id. Entries are dropped as soon as
// nobody holds or waits on them, so the map only grows with concurrency, not
// with the number of rides ever seen.
type RideLocks struct {
	mu    sync.Mutex
	locks map[string]*rideLock
}

type rideLock struct {
	mu   sync.Mutex
	refs int
}

func NewRideLocks() *RideLocks {
	return &RideLocks{locks: make(map[string]*rideLock)}
}

// Lock blocks until the caller owns rideID and returns the release func.
func (l *RideLocks) Lock(rideID string) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.locks[rideID]
	if !ok {
		rl = &rideLock{}
		l.locks[rideID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rl.mu.Unlock()
			l.mu.Lock()
			rl.refs--
			if rl.refs == 0 {
				delete(l.locks, rideID)
			}
			l.mu.Unlock()
		})
	}
}

// Len reports how many rides currently have a holder or waiter.
func (l *RideLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
