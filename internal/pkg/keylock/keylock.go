// Package keylock provides a registry of in-process mutual-exclusion scopes
// keyed by entity identifier. It fronts storage that has no native row
// locks: every unit of work that reads-or-writes an order or an actor
// balance acquires the entity's key first, so foreground mutations and the
// background sweep serialize on the same primitive.
package keylock

import (
	"context"
	"sync"
)

type lock struct {
	sem  chan struct{}
	refs int
}

// Registry hands out per-key locks on demand. Idle keys hold no memory:
// the entry is dropped once the last waiter releases.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*lock
}

func New() *Registry {
	return &Registry{locks: make(map[string]*lock)}
}

// Acquire blocks until the key's lock is held or ctx ends. On success it
// returns a release function that is safe to call more than once. On
// failure it returns ctx.Err(); callers map that to their bounded-wait
// outcome.
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &lock{sem: make(chan struct{}, 1)}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-l.sem
				r.drop(key, l)
			})
		}
		return release, nil
	case <-ctx.Done():
		r.drop(key, l)
		return nil, ctx.Err()
	}
}

func (r *Registry) drop(key string, l *lock) {
	r.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
	r.mu.Unlock()
}
