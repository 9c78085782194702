// Package console is the default sink: it writes one line per lifecycle
// event to a terminal or any io.Writer, coloring the severity tag when
// the target supports it. The readable part comes first and the encoded
// part last, so decoders can still pick the encoded span out of the line.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/opline/opline/pkg/ports"
)

// Sink writes entries as single log lines. Safe for concurrent use.
type Sink struct {
	mu          sync.Mutex
	out         io.Writer
	min         ports.Severity
	color       bool
	colorForced bool
	profile     termenv.Profile
	withEncoded bool
}

// Option configures the sink.
type Option func(*Sink)

// WithWriter redirects output, default os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(s *Sink) {
		s.out = w
	}
}

// WithMinSeverity sets the lowest severity the sink accepts.
func WithMinSeverity(min ports.Severity) Option {
	return func(s *Sink) {
		s.min = min
	}
}

// WithColor forces colored output on or off, overriding terminal detection.
func WithColor(on bool) Option {
	return func(s *Sink) {
		s.color = on
		s.colorForced = true
	}
}

// WithoutEncoded drops the encoded span from the output lines, leaving
// only the readable summary.
func WithoutEncoded() Option {
	return func(s *Sink) {
		s.withEncoded = false
	}
}

// New creates a console sink. Color is enabled automatically when the
// writer is a terminal with a capable profile.
func New(opts ...Option) *Sink {
	s := &Sink{
		out:         os.Stderr,
		min:         ports.Info,
		profile:     termenv.ColorProfile(),
		withEncoded: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.colorForced {
		s.color = isTerminal(s.out) && s.profile != termenv.Ascii
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled reports whether entries at the given severity are written.
func (s *Sink) Enabled(sev ports.Severity) bool {
	return sev >= s.min
}

// Emit writes one line: timestamp, severity tag, readable summary, and
// the encoded span.
func (s *Sink) Emit(_ context.Context, e ports.Entry) error {
	tag := fmt.Sprintf("%-5s", strings.ToUpper(e.Severity.String()))
	if s.color {
		tag = termenv.String(tag).Foreground(s.profile.Color(severityColor(e.Severity))).String()
	}

	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(tag)
	b.WriteByte(' ')
	b.WriteString(e.Readable)
	if s.withEncoded && e.Encoded != "" {
		b.WriteString("  ")
		b.WriteString(e.Encoded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.out, b.String())
	return err
}

func severityColor(sev ports.Severity) string {
	switch sev {
	case ports.Debug:
		return "#6b7280"
	case ports.Warn:
		return "#fbbf24"
	case ports.Error:
		return "#f87171"
	default:
		return "#60a5fa"
	}
}
