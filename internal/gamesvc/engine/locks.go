package engine

import "sync"

// lockTable hands out one mutex per game so that read-validate-append is
// serialized within a session while distinct sessions never contend.
type lockTable struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[int64]*sync.Mutex)}
}

func (t *lockTable) get(gameID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[gameID] = l
	}
	return l
}
