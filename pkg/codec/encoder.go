// Package codec implements the textual wire format for operation events: a
// single-pass encoder and decoder for payloads of the form
//
//	B(sn|"run-1";ps=4;ca=db;it=30)
//
// The encoder is sparse: properties holding a zero or empty value are not
// written at all, and the decoder treats absence as the zero value. The two
// sides form a strict round-trip pair; see the package tests for the
// contract.
package codec

import (
	"strconv"
	"strings"

	"github.com/opline/opline/pkg/syntax"
)

// Pair is one entry of a value map.
type Pair struct {
	Key   string
	Value string
}

// Encoder builds one encoded message. The zero value is not usable; create
// with NewEncoder. Property keys are the writer's responsibility and are not
// validated.
type Encoder struct {
	buf   []byte
	first bool
}

// NewEncoder starts a message of the given family.
func NewEncoder(prefix byte) *Encoder {
	e := &Encoder{first: true}
	e.buf = append(e.buf, prefix, syntax.DataOpen)
	return e
}

// key writes the separator, the property key, and the operator. The first
// property of a message uses the first-value marker, every later one the
// equals byte.
func (e *Encoder) key(k string) {
	if e.first {
		e.buf = append(e.buf, k...)
		e.buf = append(e.buf, syntax.FirstValue)
		e.first = false
		return
	}
	e.buf = append(e.buf, syntax.PropSep)
	e.buf = append(e.buf, k...)
	e.buf = append(e.buf, syntax.Equals)
}

// WriteString writes a string property. Empty values are omitted. Values
// containing reserved bytes are wrapped in string delimiters with quote and
// escape bytes escaped.
func (e *Encoder) WriteString(key, v string) {
	if v == "" {
		return
	}
	e.key(key)
	if needsQuoting(v) {
		e.buf = appendQuoted(e.buf, v)
		return
	}
	e.buf = append(e.buf, v...)
}

// WriteLong writes an integer property. Zero is omitted.
func (e *Encoder) WriteLong(key string, v int64) {
	if v == 0 {
		return
	}
	e.key(key)
	e.buf = strconv.AppendInt(e.buf, v, 10)
}

// WriteUint writes an unsigned integer property. Zero is omitted.
func (e *Encoder) WriteUint(key string, v uint64) {
	if v == 0 {
		return
	}
	e.key(key)
	e.buf = strconv.AppendUint(e.buf, v, 10)
}

// WriteDouble writes a floating point property. Zero is omitted. The value
// is rendered in the shortest form that parses back to the same float64.
func (e *Encoder) WriteDouble(key string, v float64) {
	if v == 0 {
		return
	}
	e.key(key)
	e.buf = strconv.AppendFloat(e.buf, v, 'g', -1, 64)
}

// WriteMap writes a value map in entry order. Values are always quoted,
// keys only when they contain reserved bytes. An empty map renders as [].
// Callers that want sparse behavior skip the call for empty maps.
func (e *Encoder) WriteMap(key string, entries []Pair) {
	e.key(key)
	e.buf = append(e.buf, syntax.MapOpen)
	for i, p := range entries {
		if i > 0 {
			e.buf = append(e.buf, syntax.PairSep)
		}
		if mapKeyNeedsQuoting(p.Key) {
			e.buf = appendQuoted(e.buf, p.Key)
		} else {
			e.buf = append(e.buf, p.Key...)
		}
		e.buf = append(e.buf, syntax.KeyValSep)
		e.buf = appendQuoted(e.buf, p.Value)
	}
	e.buf = append(e.buf, syntax.MapClose)
}

// Message returns the finished encoded line. The encoder may be written to
// again afterwards; Message renders the state at the time of the call.
func (e *Encoder) Message() string {
	out := make([]byte, len(e.buf)+1)
	copy(out, e.buf)
	out[len(e.buf)] = syntax.DataClose
	return string(out)
}

// needsQuoting reports whether a top-level value must be wrapped to survive
// the plain-value reader, which stops at the property separator and the
// data-close byte.
func needsQuoting(v string) bool {
	return strings.ContainsAny(v, `"\;)`)
}

// mapKeyNeedsQuoting reports whether a map key must be wrapped to survive
// the plain map-key reader, which stops at the key/value separator.
func mapKeyNeedsQuoting(k string) bool {
	return k == "" || strings.ContainsAny(k, `"\,:]`)
}

// appendQuoted wraps v in string delimiters, escaping the quote and escape
// bytes so an arbitrary value decodes back byte for byte.
func appendQuoted(dst []byte, v string) []byte {
	dst = append(dst, syntax.Quote)
	for i := 0; i < len(v); i++ {
		if v[i] == syntax.Quote || v[i] == syntax.Escape {
			dst = append(dst, syntax.Escape)
		}
		dst = append(dst, v[i])
	}
	return append(dst, syntax.Quote)
}
