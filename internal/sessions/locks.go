package sessions

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultStripes = 64

// Locks serializes work per session id using a fixed set of mutexes.
// Two ids may share a stripe; they are then serialized together.
type Locks struct {
	stripes []sync.Mutex
}

// NewLocks allocates n stripes. Non-positive n uses a default.
func NewLocks(n int) *Locks {
	if n <= 0 {
		n = defaultStripes
	}
	return &Locks{stripes: make([]sync.Mutex, n)}
}

func (l *Locks) stripe(id string) *sync.Mutex {
	return &l.stripes[xxhash.Sum64String(id)%uint64(len(l.stripes))]
}

// Lock acquires the stripe for id and returns its release function.
func (l *Locks) Lock(id string) func() {
	m := l.stripe(id)
	m.Lock()
	return m.Unlock
}
