// Package collector keeps recent operation records in memory: a bounded
// ring of finished records per category plus the set of currently
// running operations. It implements ports.Observer, so plugging it into
// a Logger is one option away, and it backs the debug HTTP API.
package collector

import (
	"sort"
	"sync"
	"time"

	"github.com/opline/opline/pkg/record"
)

// DefaultCapacity bounds each category ring when no capacity is given.
const DefaultCapacity = 256

// Collector is safe for concurrent use.
type Collector struct {
	mu     sync.RWMutex
	cap    int
	rings  map[string]*ring
	active map[string]*record.Record
}

// New creates a collector keeping up to capacity finished records per
// category; non-positive means DefaultCapacity.
func New(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{
		cap:    capacity,
		rings:  make(map[string]*ring),
		active: make(map[string]*record.Record),
	}
}

// OpStarted registers r as running.
func (c *Collector) OpStarted(r *record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[r.FullID()] = r
}

// OpProgressed refreshes the running snapshot of r.
func (c *Collector) OpProgressed(r *record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[r.FullID()] = r
}

// OpFinished retires r from the running set into its category ring.
func (c *Collector) OpFinished(r *record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, r.FullID())
	rg, ok := c.rings[r.Category]
	if !ok {
		rg = newRing(c.cap)
		c.rings[r.Category] = rg
	}
	rg.push(r)
}

// Filter narrows query results. Zero values match everything.
type Filter struct {
	Category    string
	Op          string
	FailedOnly  bool
	SlowOnly    bool
	MinDuration time.Duration
	Limit       int
}

// Matches reports whether r passes the filter. Limit is a query
// concern and plays no part here.
func (f Filter) Matches(r *record.Record) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Op != "" && r.OpName != f.Op {
		return false
	}
	if f.FailedOnly && !r.IsFailed() {
		return false
	}
	if f.SlowOnly && !r.IsSlow() {
		return false
	}
	if f.MinDuration > 0 && r.Duration() < f.MinDuration {
		return false
	}
	return true
}

// Recent returns finished records matching f, newest first. Returned
// records are clones; callers may keep or mutate them.
func (c *Collector) Recent(f Filter) []*record.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*record.Record
	for category, rg := range c.rings {
		if f.Category != "" && category != f.Category {
			continue
		}
		for _, r := range rg.snapshot() {
			if f.Matches(r) {
				out = append(out, r.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StopTime > out[j].StopTime
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Active returns the currently running operations, oldest start first.
func (c *Collector) Active() []*record.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*record.Record, 0, len(c.active))
	for _, r := range c.active {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Categories lists the categories with finished records, sorted.
func (c *Collector) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.rings))
	for category := range c.rings {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// ring is a fixed-size overwrite-oldest buffer.
type ring struct {
	buf  []*record.Record
	next int
	full bool
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]*record.Record, capacity)}
}

func (r *ring) push(rec *record.Record) {
	r.buf[r.next] = rec
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// snapshot returns the contents oldest first.
func (r *ring) snapshot() []*record.Record {
	if !r.full {
		return r.buf[:r.next]
	}
	out := make([]*record.Record, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
