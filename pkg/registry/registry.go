// Package registry hands out the position numbers that make operation
// identities unique. Positions are per key (category, or category/opName),
// start at 1, strictly increase, and wrap back to 1 after the maximum
// uint64 value.
package registry

import (
	"math"
	"sync"
	"sync/atomic"
)

// Registry is a concurrent key to counter map. The zero value is not
// usable; create with New. All methods are safe for concurrent use and
// Next is linearizable per key: two callers never observe the same value.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*atomic.Uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		counters: make(map[string]*atomic.Uint64),
	}
}

// Next returns the next position for key, creating the counter on first
// use. After the maximum representable position the sequence restarts at 1.
func (r *Registry) Next(key string) uint64 {
	r.mu.RLock()
	c, ok := r.counters[key]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		c, ok = r.counters[key]
		if !ok {
			c = new(atomic.Uint64)
			r.counters[key] = c
		}
		r.mu.Unlock()
	}

	for {
		cur := c.Load()
		next := cur + 1
		if cur == math.MaxUint64 {
			next = 1
		}
		if c.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// Current returns the last position handed out for key, zero if none.
func (r *Registry) Current(key string) uint64 {
	r.mu.RLock()
	c, ok := r.counters[key]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

// Reset drops every counter. It exists for test harnesses; production code
// never resets positions.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = make(map[string]*atomic.Uint64)
}

var defaultRegistry = New()

// Default returns the process-wide registry shared by all loggers that are
// not given their own. It is initialized once and lives for the process.
func Default() *Registry {
	return defaultRegistry
}
