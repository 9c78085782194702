package ports

import "github.com/opline/opline/pkg/record"

// Observer listens to operation lifecycle events. Each callback receives
// an independent snapshot of the record, so observers may keep or mutate
// it freely. Callbacks run synchronously on the instrumented goroutine
// and must not block.
type Observer interface {
	OpStarted(r *record.Record)
	OpProgressed(r *record.Record)
	OpFinished(r *record.Record)
}

// Hooks adapts plain functions to Observer. Nil functions are skipped.
type Hooks struct {
	OnStarted    func(*record.Record)
	OnProgressed func(*record.Record)
	OnFinished   func(*record.Record)
}

func (h Hooks) OpStarted(r *record.Record) {
	if h.OnStarted != nil {
		h.OnStarted(r)
	}
}

func (h Hooks) OpProgressed(r *record.Record) {
	if h.OnProgressed != nil {
		h.OnProgressed(r)
	}
}

func (h Hooks) OpFinished(r *record.Record) {
	if h.OnFinished != nil {
		h.OnFinished(r)
	}
}
