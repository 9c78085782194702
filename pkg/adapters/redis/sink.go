// Package redis ships emitted entries into a Redis stream, giving other
// processes a live tail of operation events. Each entry becomes one
// XADD with the readable and encoded views as separate fields.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/opline/opline/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const defaultStream = "opline:events"

// Sink implements ports.Sink on a Redis stream.
type Sink struct {
	client *backend.Client
	stream string
	min    ports.Severity
	maxLen int64
}

// Option configures the sink.
type Option func(*Sink)

// WithStream sets the stream key, default "opline:events".
func WithStream(name string) Option {
	return func(s *Sink) {
		s.stream = name
	}
}

// WithMinSeverity sets the lowest severity shipped to Redis.
func WithMinSeverity(min ports.Severity) Option {
	return func(s *Sink) {
		s.min = min
	}
}

// WithMaxLen caps the stream length; trimming is approximate to keep
// XADD cheap. Zero disables trimming.
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// NewSink creates a stream sink on an existing client.
func NewSink(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client: client,
		stream: defaultStream,
		min:    ports.Info,
		maxLen: 10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether entries at the given severity are shipped.
func (s *Sink) Enabled(sev ports.Severity) bool {
	return sev >= s.min
}

// Emit appends one entry to the stream.
func (s *Sink) Emit(ctx context.Context, e ports.Entry) error {
	args := &backend.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"ts":       strconv.FormatInt(e.Time.UnixNano(), 10),
			"severity": e.Severity.String(),
			"category": e.Category,
			"readable": e.Readable,
			"encoded":  e.Encoded,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis error appending to %s: %w", s.stream, err)
	}
	return nil
}
