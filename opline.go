package opline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/opline/opline/internal/logging"
	"github.com/opline/opline/internal/sysprobe"
	"github.com/opline/opline/pkg/adapters/console"
	"github.com/opline/opline/pkg/config"
	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/registry"
)

// processSession identifies this process run. Every Logger that is not
// given an explicit session id shares it, so all operations of one run
// carry the same session marker.
var processSession = uuid.NewString()

// Logger creates and drives operations for one category. It bundles the
// collaborators every operation needs: the sink receiving the emitted
// line pairs, the probe sampling runtime gauges, the clock, the position
// registry, the settings, and the diagnostics channel for inconsistent
// usage reports. A Logger is safe for concurrent use; the operations it
// creates are not.
type Logger struct {
	category  string
	session   string
	sink      ports.Sink
	probe     ports.Probe
	clock     ports.Clock
	observers []ports.Observer
	diag      *slog.Logger
	reg       *registry.Registry
	settings  *config.Runtime
}

// Option defines a functional option for configuring a Logger.
type Option func(*Logger)

// WithSink routes emitted entries to the given sink instead of the
// default console sink.
func WithSink(s ports.Sink) Option {
	return func(l *Logger) {
		l.sink = s
	}
}

// WithProbe replaces the runtime gauge source. Use ports.NopProbe to
// disable gauge sampling entirely.
func WithProbe(p ports.Probe) Option {
	return func(l *Logger) {
		l.probe = p
	}
}

// WithClock replaces the nanosecond time source.
func WithClock(c ports.Clock) Option {
	return func(l *Logger) {
		l.clock = c
	}
}

// WithObserver registers lifecycle observers. Observers receive record
// clones for every started, progressed, and finished operation,
// regardless of sink severity gating.
func WithObserver(obs ...ports.Observer) Option {
	return func(l *Logger) {
		l.observers = append(l.observers, obs...)
	}
}

// WithDiagnostics sets the structured logger receiving inconsistency and
// internal bug reports. Diagnostics are discarded by default.
func WithDiagnostics(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.diag = logger
	}
}

// WithSession overrides the process-wide session id.
func WithSession(id string) Option {
	return func(l *Logger) {
		if id != "" {
			l.session = id
		}
	}
}

// WithRegistry uses a private position registry instead of the
// process-wide default. Mostly useful in tests.
func WithRegistry(r *registry.Registry) Option {
	return func(l *Logger) {
		l.reg = r
	}
}

// WithSettings fixes the settings snapshot for this Logger.
func WithSettings(s config.Settings) Option {
	return func(l *Logger) {
		l.settings = config.NewRuntime(s)
	}
}

// WithRuntime shares a mutable settings holder across Loggers, letting
// the host retune trackers while they run.
func WithRuntime(rt *config.Runtime) Option {
	return func(l *Logger) {
		l.settings = rt
	}
}

// New creates a Logger for one category. The category groups operations
// and commonly names the owning module or subsystem.
func New(category string, opts ...Option) *Logger {
	l := &Logger{
		category: category,
		session:  processSession,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		l.sink = console.New()
	}
	if l.probe == nil {
		l.probe = sysprobe.New()
	}
	if l.clock == nil {
		l.clock = ports.SystemClock()
	}
	if l.diag == nil {
		l.diag = logging.NewNop()
	}
	if l.reg == nil {
		l.reg = registry.Default()
	}
	if l.settings == nil {
		l.settings = config.NewRuntime(config.Default())
	}
	return l
}

// Category returns the category this Logger stamps on its operations.
func (l *Logger) Category() string {
	return l.category
}

// Session returns the session id this Logger stamps on its operations.
func (l *Logger) Session() string {
	return l.session
}

// Op creates a new operation in the Scheduled state. The operation owns
// one record for its lifetime, already stamped with session, category,
// name, creation time, and its unique position. Nothing is emitted until
// Start.
func (l *Logger) Op(name string) *Op {
	rec := &record.Record{
		SessionID:  l.session,
		Category:   l.category,
		OpName:     name,
		CreateTime: l.clock.Now(),
	}
	rec.Position = l.reg.Next(rec.Key())
	return &Op{
		log: l,
		rec: rec,
		ctx: context.Background(),
	}
}
