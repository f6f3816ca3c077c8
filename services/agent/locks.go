package agent

import "sync"

// userLocks serializes turns per user_id so two simultaneous messages from
// one user cannot lose slot updates through concurrent load/save. Turns for
// different users proceed in parallel.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*lockEntry)}
}

// acquire blocks until the user's lock is held and returns the release
// function. Entries are reference-counted so the map does not grow with
// every user ever seen.
func (l *userLocks) acquire(userID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &lockEntry{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
