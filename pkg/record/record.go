// Package record defines the event record of one tracked operation and its
// binding to the wire format.
//
// A record is a passive data object: the lifecycle tracker owns and mutates
// it, the codec serializes it, and offline tooling reconstructs it from
// encoded lines. All timestamps are nanoseconds from the tracker's clock;
// zero means "not yet reached".
package record

import (
	"strconv"
	"strings"
	"time"
)

// Record holds everything known about one operation instance. Exactly one
// of OkPath, RejectPath, FailPath is set once the operation finished; the
// tracker maintains that invariant together with StopTime.
type Record struct {
	SessionID          string  `json:"session_id,omitempty"`
	Position           uint64  `json:"position,omitempty"`
	Category           string  `json:"category,omitempty"`
	OpName             string  `json:"op_name,omitempty"`
	ParentID           string  `json:"parent_id,omitempty"`
	Description        string  `json:"description,omitempty"`
	CreateTime         int64   `json:"create_time,omitempty"`
	StartTime          int64   `json:"start_time,omitempty"`
	StopTime           int64   `json:"stop_time,omitempty"`
	TimeLimit          int64   `json:"time_limit,omitempty"`
	Iteration          int64   `json:"iteration,omitempty"`
	ExpectedIterations int64   `json:"expected_iterations,omitempty"`
	OkPath             string  `json:"ok_path,omitempty"`
	RejectPath         string  `json:"reject_path,omitempty"`
	FailPath           string  `json:"fail_path,omitempty"`
	FailMessage        string  `json:"fail_message,omitempty"`
	HeapBytes          int64   `json:"heap_bytes,omitempty"`
	Goroutines         int64   `json:"goroutines,omitempty"`
	Load               float64 `json:"load,omitempty"`
	Context            Context `json:"context,omitzero"`
}

// FullID is the display identity: category, optional operation name, and
// position, e.g. "db/fetch#12".
func (r *Record) FullID() string {
	var b strings.Builder
	b.WriteString(r.Category)
	if r.OpName != "" {
		b.WriteByte('/')
		b.WriteString(r.OpName)
	}
	b.WriteByte('#')
	b.WriteString(strconv.FormatUint(r.Position, 10))
	return b.String()
}

// Key is the position registry key: category, or category/opName when the
// operation is named.
func (r *Record) Key() string {
	if r.OpName == "" {
		return r.Category
	}
	return r.Category + "/" + r.OpName
}

// IsStarted reports whether the operation left the scheduled state.
func (r *Record) IsStarted() bool { return r.StartTime != 0 }

// IsFinished reports whether the operation reached a terminal state.
func (r *Record) IsFinished() bool { return r.StopTime != 0 }

// IsOK reports a successful outcome.
func (r *Record) IsOK() bool { return r.OkPath != "" }

// IsRejected reports a rejected outcome.
func (r *Record) IsRejected() bool { return r.RejectPath != "" }

// IsFailed reports a failed outcome.
func (r *Record) IsFailed() bool { return r.FailPath != "" }

// Outcome names the terminal branch taken: "ok", "reject", "fail", or ""
// while still running.
func (r *Record) Outcome() string {
	switch {
	case r.OkPath != "":
		return "ok"
	case r.RejectPath != "":
		return "reject"
	case r.FailPath != "":
		return "fail"
	default:
		return ""
	}
}

// Path returns the outcome branch label, whichever field holds it.
func (r *Record) Path() string {
	switch {
	case r.OkPath != "":
		return r.OkPath
	case r.RejectPath != "":
		return r.RejectPath
	default:
		return r.FailPath
	}
}

// Duration is the started-to-stopped span, zero while either end is unset.
func (r *Record) Duration() time.Duration {
	if r.StartTime == 0 || r.StopTime == 0 {
		return 0
	}
	return time.Duration(r.StopTime - r.StartTime)
}

// IsSlow reports whether a finished operation overran its time limit.
func (r *Record) IsSlow() bool {
	return r.TimeLimit > 0 && r.IsFinished() && r.StopTime-r.StartTime > r.TimeLimit
}

// IsSlowAt reports whether the operation has overrun its time limit as of
// now, using now as the provisional end while the operation still runs.
func (r *Record) IsSlowAt(now int64) bool {
	if r.TimeLimit <= 0 || r.StartTime == 0 {
		return false
	}
	end := r.StopTime
	if end == 0 {
		end = now
	}
	return end-r.StartTime > r.TimeLimit
}

// Clone returns an independent deep copy.
func (r *Record) Clone() *Record {
	out := *r
	out.Context = r.Context.Clone()
	return &out
}
