// Package guard keeps at most one analysis in flight per user.
package guard

import "sync"

// Guard is a concurrency-safe set of users that currently hold an analysis
// slot. The zero value is not usable; call New.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func New() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire claims the slot for user. It returns false, without changing
// anything, when the user already holds it.
func (g *Guard) TryAcquire(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[user]; busy {
		return false
	}
	g.active[user] = struct{}{}
	return true
}

// Release frees the slot for user. Releasing a free slot is a no-op.
func (g *Guard) Release(user string) {
	g.mu.Lock()
	delete(g.active, user)
	g.mu.Unlock()
}

// Acquire is TryAcquire returning a release func that frees the slot at most
// once, meant to be deferred by the caller.
func (g *Guard) Acquire(user string) (release func(), ok bool) {
	if !g.TryAcquire(user) {
		return func() {}, false
	}
	var once sync.Once
	return func() { once.Do(func() { g.Release(user) }) }, true
}

// Len returns the number of users currently holding a slot.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}

// Held reports whether user currently holds a slot.
func (g *Guard) Held(user string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[user]
	return ok
}
