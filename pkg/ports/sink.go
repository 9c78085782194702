package ports

import (
	"context"
	"errors"
	"time"
)

// Entry is one emitted event: the two synchronized views of the same
// record plus routing metadata.
type Entry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Category string    `json:"category"`
	Readable string    `json:"readable"`
	Encoded  string    `json:"encoded"`
}

// Sink receives emitted entries. Enabled is consulted before the entry is
// built: a disabled severity skips probe sampling and encoding on the
// producing side, so Enabled must be cheap and side-effect free. Emit
// errors are reported on the tracker's diagnostic channel, never to the
// instrumented caller.
type Sink interface {
	Enabled(s Severity) bool
	Emit(ctx context.Context, e Entry) error
}

type discard struct{}

func (discard) Enabled(Severity) bool             { return false }
func (discard) Emit(context.Context, Entry) error { return nil }

// Discard drops everything and reports every severity disabled, giving
// instrumented code its cheapest possible path.
var Discard Sink = discard{}

type tee struct {
	sinks []Sink
}

// Tee fans entries out to several sinks. A severity is enabled when any
// sink enables it; each entry goes only to the sinks that enabled its
// severity, and emit errors are joined.
func Tee(sinks ...Sink) Sink {
	return &tee{sinks: sinks}
}

func (t *tee) Enabled(s Severity) bool {
	for _, sk := range t.sinks {
		if sk.Enabled(s) {
			return true
		}
	}
	return false
}

func (t *tee) Emit(ctx context.Context, e Entry) error {
	var errs []error
	for _, sk := range t.sinks {
		if !sk.Enabled(e.Severity) {
			continue
		}
		if err := sk.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
