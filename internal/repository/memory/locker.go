package memory

import (
	"sort"
	"sync"

	"github.com/itoshi/membership-service/internal/core/port"
)

// AccountLocker implements port.AccountLocker with one mutex per account,
// created on demand. Ids are deduplicated and locked in sorted order so two
// activations over overlapping ancestor chains cannot deadlock.
type AccountLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountLocker constructs an empty locker.
func NewAccountLocker() *AccountLocker {
	return &AccountLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for every id and returns the release function.
func (l *AccountLocker) Lock(ids ...string) (release func()) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)

	acquired := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.mutexFor(id)
		m.Lock()
		acquired = append(acquired, m)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func (l *AccountLocker) mutexFor(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

var _ port.AccountLocker = (*AccountLocker)(nil)
