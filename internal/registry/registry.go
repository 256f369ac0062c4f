// Package registry shares one live value per key between concurrent users
// and drops it once the last user releases it.
package registry

import "sync"

type entry[V any] struct {
	value V
	refs  int
}

type Registry[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	create  func(K) V
}

func New[K comparable, V any](create func(K) V) *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]*entry[V]),
		create:  create,
	}
}

// Acquire returns the value for key, creating it if no one holds it. The
// returned release func must be called exactly once; extra calls are no-ops.
func (r *Registry[K, V]) Acquire(key K) (V, func()) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry[V]{value: r.create(key)}
		r.entries[key] = e
	}
	e.refs++
	r.mu.Unlock()

	var once sync.Once
	return e.value, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e.refs--
			if e.refs == 0 && r.entries[key] == e {
				delete(r.entries, key)
			}
		})
	}
}

// Len reports how many keys are currently held.
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
