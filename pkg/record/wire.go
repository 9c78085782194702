package record

import (
	"fmt"

	"github.com/opline/opline/pkg/codec"
	"github.com/opline/opline/pkg/syntax"
)

// Wire property tokens. These are matched literally by every decoder ever
// written against this format, so they are fixed for good.
const (
	keySession     = "sn"
	keyPosition    = "ps"
	keyCategory    = "ca"
	keyOpName      = "on"
	keyParent      = "pa"
	keyDescription = "ds"
	keyCreateTime  = "ct"
	keyStartTime   = "st"
	keyStopTime    = "sp"
	keyTimeLimit   = "tl"
	keyIteration   = "it"
	keyExpected    = "ei"
	keyOkPath      = "op"
	keyRejectPath  = "rp"
	keyFailPath    = "fp"
	keyFailMessage = "fm"
	keyHeapBytes   = "mem"
	keyGoroutines  = "gor"
	keyLoad        = "ld"
	keyContext     = "cx"
)

// Encode renders the record as one line of the given message family. Fields
// holding their zero value are omitted; the context map is written in
// insertion order.
func (r *Record) Encode(prefix byte) string {
	e := codec.NewEncoder(prefix)
	e.WriteString(keySession, r.SessionID)
	e.WriteUint(keyPosition, r.Position)
	e.WriteString(keyCategory, r.Category)
	e.WriteString(keyOpName, r.OpName)
	e.WriteString(keyParent, r.ParentID)
	e.WriteString(keyDescription, r.Description)
	e.WriteLong(keyCreateTime, r.CreateTime)
	e.WriteLong(keyStartTime, r.StartTime)
	e.WriteLong(keyStopTime, r.StopTime)
	e.WriteLong(keyTimeLimit, r.TimeLimit)
	e.WriteLong(keyIteration, r.Iteration)
	e.WriteLong(keyExpected, r.ExpectedIterations)
	e.WriteString(keyOkPath, r.OkPath)
	e.WriteString(keyRejectPath, r.RejectPath)
	e.WriteString(keyFailPath, r.FailPath)
	e.WriteString(keyFailMessage, r.FailMessage)
	e.WriteLong(keyHeapBytes, r.HeapBytes)
	e.WriteLong(keyGoroutines, r.Goroutines)
	e.WriteDouble(keyLoad, r.Load)
	if r.Context.Len() > 0 {
		e.WriteMap(keyContext, r.Context.Pairs())
	}
	return e.Message()
}

type decodeOptions struct {
	tolerant bool
}

// DecodeOption adjusts how Decode treats the payload.
type DecodeOption func(*decodeOptions)

// Tolerant makes Decode skip unknown property keys instead of failing,
// which lets newer writers coexist with older readers.
func Tolerant() DecodeOption {
	return func(o *decodeOptions) { o.tolerant = true }
}

// Decode reconstructs a record from a line holding a payload of the given
// family. Lines that fail the plausibility check return an error for which
// codec.IsNotPlausible is true; anything structurally broken afterwards is
// malformed. Context entries come back sorted by key.
func Decode(line string, prefix byte, opts ...DecodeOption) (*Record, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	d, err := codec.NewDecoder(line, prefix)
	if err != nil {
		return nil, err
	}

	r := &Record{}
	for d.More() {
		key, err := d.Key()
		if err != nil {
			return nil, err
		}
		switch key {
		case keySession:
			r.SessionID, err = d.ReadString()
		case keyPosition:
			r.Position, err = d.ReadUintOrZero()
		case keyCategory:
			r.Category, err = d.ReadString()
		case keyOpName:
			r.OpName, err = d.ReadString()
		case keyParent:
			r.ParentID, err = d.ReadString()
		case keyDescription:
			r.Description, err = d.ReadString()
		case keyCreateTime:
			r.CreateTime, err = d.ReadLongOrZero()
		case keyStartTime:
			r.StartTime, err = d.ReadLongOrZero()
		case keyStopTime:
			r.StopTime, err = d.ReadLongOrZero()
		case keyTimeLimit:
			r.TimeLimit, err = d.ReadLongOrZero()
		case keyIteration:
			r.Iteration, err = d.ReadLongOrZero()
		case keyExpected:
			r.ExpectedIterations, err = d.ReadLongOrZero()
		case keyOkPath:
			r.OkPath, err = d.ReadString()
		case keyRejectPath:
			r.RejectPath, err = d.ReadString()
		case keyFailPath:
			r.FailPath, err = d.ReadString()
		case keyFailMessage:
			r.FailMessage, err = d.ReadString()
		case keyHeapBytes:
			r.HeapBytes, err = d.ReadLongOrZero()
		case keyGoroutines:
			r.Goroutines, err = d.ReadLongOrZero()
		case keyLoad:
			r.Load, err = d.ReadDoubleOrZero()
		case keyContext:
			var entries []codec.Pair
			entries, err = d.ReadMap()
			for _, p := range entries {
				r.Context.Set(p.Key, p.Value)
			}
		default:
			if !o.tolerant {
				return nil, &codec.DecodeError{
					Kind: codec.UnknownKey,
					Pos:  d.Offset(),
					Want: fmt.Sprintf("known property key, got %q", key),
				}
			}
			err = d.SkipValue()
		}
		if err != nil {
			return nil, err
		}
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeAny tries the three message families in order and returns the
// first that decodes, along with its prefix byte. Lines that match no
// family return a not-plausible error.
func DecodeAny(line string, opts ...DecodeOption) (*Record, byte, error) {
	for _, prefix := range []byte{syntax.PrefixBegin, syntax.PrefixProgress, syntax.PrefixEnd} {
		if !codec.Plausible(line, prefix) {
			continue
		}
		r, err := Decode(line, prefix, opts...)
		if err != nil {
			return nil, prefix, err
		}
		return r, prefix, nil
	}
	return nil, 0, &codec.DecodeError{Kind: codec.NotPlausible}
}
