package application

import (
	"slices"
	"sync"
)

// roomLocks hands out one mutex per room id. Entries are reference counted
// and removed once no caller holds or waits for them.
type roomLocks struct {
	mu    sync.Mutex
	locks map[int64]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[int64]*roomLock)}
}

// Lock acquires the mutexes for the given rooms in ascending id order and
// returns the function releasing them. Duplicate ids are locked once.
func (l *roomLocks) Lock(roomIDs ...int64) (unlock func()) {
	ids := uniqueSorted(roomIDs)

	held := make([]*roomLock, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		lock, ok := l.locks[id]
		if !ok {
			lock = &roomLock{}
			l.locks[id] = lock
		}
		lock.refs++
		l.mu.Unlock()

		lock.mu.Lock()
		held = append(held, lock)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(ids[i], held[i])
		}
	}
}

func (l *roomLocks) release(id int64, lock *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
