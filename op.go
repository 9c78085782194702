package opline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/syntax"
)

const (
	phaseScheduled int8 = iota
	phaseStarted
	phaseDone
)

// Op is one tracked unit of work. It owns exactly one record and moves
// through Scheduled, Started, and one terminal outcome; an Op is never
// reused. Out-of-order calls are reported on the diagnostics channel and
// still carried out where possible, never turned into panics or errors:
// instrumentation must not destabilize the host.
//
// A single Op must not be mutated concurrently. Distinct Ops, including
// parent and sub-operations, may live on different goroutines.
type Op struct {
	log    *Logger
	rec    *record.Record
	ctx    context.Context
	parent *Op

	// children counts sub-operations that have not reached a terminal
	// state yet. Finishing while children are open is an inconsistency.
	children atomic.Int64

	phase        int8
	lastEmitNS   int64
	lastEmitIter int64
}

// Record returns a snapshot of the operation's record.
func (o *Op) Record() *record.Record {
	return o.rec.Clone()
}

// FullID returns the operation identity, category[/name]#position.
func (o *Op) FullID() string {
	return o.rec.FullID()
}

// Describe attaches a free-text description, shown on the begun line.
func (o *Op) Describe(text string) *Op {
	o.rec.Description = text
	return o
}

// TimeLimit marks the operation slow when it runs longer than d.
func (o *Op) TimeLimit(d time.Duration) *Op {
	if d <= 0 {
		o.inconsistent(fmt.Sprintf("non-positive time limit %v", d))
		return o
	}
	o.rec.TimeLimit = d.Nanoseconds()
	return o
}

// Iterations declares how many iterations the operation expects,
// enabling percentage display on progress lines.
func (o *Op) Iterations(n int64) *Op {
	if n <= 0 {
		o.inconsistent(fmt.Sprintf("non-positive expected iterations %d", n))
		return o
	}
	o.rec.ExpectedIterations = n
	return o
}

// Set attaches one context annotation. A nil value becomes the literal
// string "<nil>"; everything else is rendered with fmt. Insertion order
// is kept for display.
func (o *Op) Set(key string, value any) *Op {
	o.setContext(key, value)
	return o
}

func (o *Op) setContext(key string, value any) {
	defer o.rescue("set")
	if key == "" {
		o.inconsistent("empty context key")
		return
	}
	text := "<nil>"
	if value != nil {
		text = fmt.Sprint(value)
	}
	o.rec.Context.Set(key, text)
}

// Start moves the operation from Scheduled to Started, stamps the start
// time, and emits the begun event.
func (o *Op) Start() *Op {
	now := o.log.clock.Now()
	switch o.phase {
	case phaseStarted:
		o.inconsistent("started twice")
		o.rec.StartTime = now
		return o
	case phaseDone:
		o.inconsistent("started after finish")
		return o
	}
	o.phase = phaseStarted
	o.rec.StartTime = now
	o.lastEmitNS = now
	o.emit(syntax.PrefixBegin, ports.Info)
	return o
}

// Inc advances the iteration counter by one.
func (o *Op) Inc() *Op {
	return o.IncBy(1)
}

// IncBy advances the iteration counter by n.
func (o *Op) IncBy(n int64) *Op {
	if n <= 0 {
		o.inconsistent(fmt.Sprintf("non-positive increment %d", n))
		return o
	}
	o.checkStarted("increment")
	o.rec.Iteration += n
	return o
}

// IncTo sets the iteration counter to n, which must move strictly
// forward; a non-forward value is reported and ignored.
func (o *Op) IncTo(n int64) *Op {
	o.checkStarted("increment")
	if n <= o.rec.Iteration {
		o.inconsistent(fmt.Sprintf("iteration must move forward, %d to %d", o.rec.Iteration, n))
		return o
	}
	o.rec.Iteration = n
	return o
}

// Progress emits a progress snapshot, rate-limited: nothing happens
// unless the iteration counter advanced since the last emitted event and
// the configured minimum interval elapsed since then.
func (o *Op) Progress() *Op {
	if o.phase != phaseStarted {
		o.checkStarted("progress")
		return o
	}
	if o.rec.Iteration <= o.lastEmitIter {
		return o
	}
	now := o.log.clock.Now()
	if now-o.lastEmitNS < int64(o.log.settings.Current().ProgressInterval()) {
		return o
	}
	o.lastEmitNS = now
	o.lastEmitIter = o.rec.Iteration
	o.emit(syntax.PrefixProgress, ports.Info)
	return o
}

// Ok finishes the operation successfully on the default path.
func (o *Op) Ok() {
	o.finish(outcomeOK, "ok", "")
}

// OkPath finishes the operation successfully, naming the branch taken.
func (o *Op) OkPath(path string) {
	if path == "" {
		o.inconsistent("empty ok path")
		path = "ok"
	}
	o.finish(outcomeOK, path, "")
}

// Reject finishes the operation as refused for the named cause. A
// rejection is an anticipated negative outcome, not an error.
func (o *Op) Reject(cause string) {
	if cause == "" {
		o.inconsistent("empty reject cause")
		cause = "reject"
	}
	o.finish(outcomeReject, cause, "")
}

// Fail finishes the operation as failed, recording the error text.
func (o *Op) Fail(err error) {
	if err == nil {
		o.inconsistent("fail with nil error")
		o.finish(outcomeFail, "fail", "")
		return
	}
	o.finish(outcomeFail, "fail", err.Error())
}

// FailPath finishes the operation as failed on a named branch with an
// optional message.
func (o *Op) FailPath(path, msg string) {
	if path == "" {
		o.inconsistent("empty fail path")
		path = "fail"
	}
	o.finish(outcomeFail, path, msg)
}

// Close makes an Op usable as a scope guard: deferred right after
// creation, it is a no-op when a terminal call was made and otherwise
// fails the operation on the fixed "closed" path, reporting the missing
// terminal call. Always returns nil.
func (o *Op) Close() error {
	if o.phase == phaseDone {
		return nil
	}
	o.inconsistent("closed without ok, reject, or fail")
	o.finish(outcomeFail, "closed", "")
	return nil
}

// Sub creates a sub-operation: same category, the parent's name joined
// with the segment, the parent's full id as parent reference, and a copy
// of the parent's context taken now. Later context changes on either
// side stay independent. The child is Scheduled; start it explicitly.
func (o *Op) Sub(segment string) *Op {
	if segment == "" {
		o.inconsistent("empty sub-operation name")
		segment = "sub"
	}
	name := segment
	if o.rec.OpName != "" {
		name = o.rec.OpName + "." + segment
	}
	child := o.log.Op(name)
	child.rec.ParentID = o.rec.FullID()
	child.rec.Context = o.rec.Context.Clone()
	child.parent = o
	child.ctx = o.ctx
	o.children.Add(1)
	return child
}

const (
	outcomeOK = iota
	outcomeReject
	outcomeFail
)

func (o *Op) finish(kind int, path, msg string) {
	if o.phase == phaseDone {
		o.inconsistent("finished twice")
		return
	}
	if o.phase == phaseScheduled {
		o.inconsistent("finished before start")
	}
	if n := o.children.Load(); n > 0 {
		o.inconsistent(fmt.Sprintf("%d sub-operations still open", n))
	}
	o.phase = phaseDone
	o.rec.StopTime = o.log.clock.Now()

	o.rec.OkPath, o.rec.RejectPath, o.rec.FailPath, o.rec.FailMessage = "", "", "", ""
	sev := ports.Info
	switch kind {
	case outcomeReject:
		o.rec.RejectPath = path
		sev = ports.Warn
	case outcomeFail:
		o.rec.FailPath = path
		o.rec.FailMessage = msg
		sev = ports.Error
	default:
		o.rec.OkPath = path
	}

	if o.parent != nil {
		o.parent.children.Add(-1)
	}
	o.emit(syntax.PrefixEnd, sev)
}

// emit runs the outgoing pipeline for one lifecycle event: sample gauges
// when a consumer is listening, notify observers with clones, then hand
// the readable and encoded pair to the sink. Severity gating keeps the
// disabled path cheap: no sampling, no rendering, no encoding. Panics
// from probe, observer, or sink code are contained here.
func (o *Op) emit(prefix byte, sev ports.Severity) {
	defer o.rescue("emit")

	enabled := o.log.sink != nil && o.log.sink.Enabled(sev)
	if enabled && o.log.probe != nil {
		g := o.log.probe.Sample()
		o.rec.HeapBytes = g.HeapBytes
		o.rec.Goroutines = g.Goroutines
		o.rec.Load = g.Load
	}

	for _, obs := range o.log.observers {
		clone := o.rec.Clone()
		switch prefix {
		case syntax.PrefixBegin:
			obs.OpStarted(clone)
		case syntax.PrefixProgress:
			obs.OpProgressed(clone)
		case syntax.PrefixEnd:
			obs.OpFinished(clone)
		}
	}

	if !enabled {
		return
	}
	now := o.log.clock.Now()
	entry := ports.Entry{
		Time:     time.Unix(0, now),
		Severity: sev,
		Category: o.rec.Category,
		Readable: o.log.readable(o.rec, prefix, now),
		Encoded:  o.rec.Encode(prefix),
	}
	if err := o.log.sink.Emit(o.ctx, entry); err != nil {
		o.log.diag.Warn("sink emit failed",
			"op", o.rec.FullID(),
			"error", err,
		)
	}
}

func (o *Op) inconsistent(detail string) {
	o.log.diag.Warn("inconsistent usage",
		"op", o.rec.FullID(),
		"detail", detail,
	)
}

func (o *Op) checkStarted(call string) {
	switch o.phase {
	case phaseScheduled:
		o.inconsistent(call + " before start")
	case phaseDone:
		o.inconsistent(call + " after finish")
	}
}

// rescue contains panics escaping collaborator code and reports them as
// internal bugs instead of unwinding into the host.
func (o *Op) rescue(in string) {
	if r := recover(); r != nil {
		o.log.diag.Error("internal bug",
			"in", in,
			"op", o.rec.FullID(),
			"panic", r,
		)
	}
}
