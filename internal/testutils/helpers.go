// Package testutils holds the fakes shared by the test suites: a manual
// clock, a recording sink, and a slog spy for diagnostic assertions.
package testutils

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opline/opline/pkg/ports"
)

// Clock is a manually advanced nanosecond clock.
type Clock struct {
	now atomic.Int64
}

// NewClock starts a clock at the given nanosecond timestamp. Start it
// above zero; zero timestamps mean "unset" to the tracker.
func NewClock(start int64) *Clock {
	c := &Clock{}
	c.now.Store(start)
	return c
}

func (c *Clock) Now() int64 {
	return c.now.Load()
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.now.Add(int64(d))
}

// Set jumps the clock to an absolute timestamp.
func (c *Clock) Set(ns int64) {
	c.now.Store(ns)
}

// Sink records every entry it receives.
type Sink struct {
	Min ports.Severity
	Err error

	mu      sync.Mutex
	entries []ports.Entry
}

// NewSink creates a recording sink enabled at and above min.
func NewSink(min ports.Severity) *Sink {
	return &Sink{Min: min}
}

func (s *Sink) Enabled(sev ports.Severity) bool {
	return sev >= s.Min
}

func (s *Sink) Emit(_ context.Context, e ports.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.Err
}

// Entries returns a copy of everything emitted so far.
func (s *Sink) Entries() []ports.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Last returns the most recent entry.
func (s *Sink) Last() (ports.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return ports.Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// LogSpy collects slog records, so tests can assert on the diagnostics a
// tracker reported.
type LogSpy struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewLogSpy returns a logger whose output lands in the spy.
func NewLogSpy() (*slog.Logger, *LogSpy) {
	spy := &LogSpy{}
	return slog.New(&spyHandler{spy: spy}), spy
}

// Records returns a copy of the captured records.
func (s *LogSpy) Records() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]slog.Record, len(s.records))
	copy(out, s.records)
	return out
}

// CountLevel returns how many records were captured at the given level.
func (s *LogSpy) CountLevel(level slog.Level) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the captured messages in order.
func (s *LogSpy) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = r.Message
	}
	return out
}

func (s *LogSpy) add(r slog.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

type spyHandler struct {
	spy   *LogSpy
	attrs []slog.Attr
}

func (h *spyHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *spyHandler) Handle(_ context.Context, r slog.Record) error {
	rec := r.Clone()
	rec.AddAttrs(h.attrs...)
	h.spy.add(rec)
	return nil
}

func (h *spyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &spyHandler{spy: h.spy, attrs: merged}
}

func (h *spyHandler) WithGroup(string) slog.Handler {
	return h
}
