package codec

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind int

const (
	// NotPlausible means the line does not even look like an encoded
	// message of the requested family. Expected when scanning mixed log
	// streams; callers skip these lines.
	NotPlausible Kind = iota
	// Malformed means the payload looked plausible but violated the
	// grammar (unterminated quote, missing delimiter, truncated input).
	Malformed
	// NumericFormat means a value was present but not parseable as the
	// requested numeric type.
	NumericFormat
	// UnknownKey means the payload carries a property key the reader
	// does not recognize.
	UnknownKey
)

func (k Kind) String() string {
	switch k {
	case NotPlausible:
		return "not plausible"
	case Malformed:
		return "malformed"
	case NumericFormat:
		return "numeric format"
	case UnknownKey:
		return "unknown key"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DecodeError reports why a payload could not be decoded. Pos is the byte
// offset into the original line, Want names what the decoder expected there.
type DecodeError struct {
	Kind Kind
	Pos  int
	Want string
}

func (e *DecodeError) Error() string {
	if e.Kind == NotPlausible {
		return "decode: message not plausible"
	}
	return fmt.Sprintf("decode (%s): expected %s at offset %d", e.Kind, e.Want, e.Pos)
}

// IsNotPlausible reports whether err marks a line that is simply not an
// encoded message, as opposed to a corrupt one.
func IsNotPlausible(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == NotPlausible
}

// IsMalformed reports whether err marks a structurally broken payload.
func IsMalformed(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == Malformed
}

func notPlausible() *DecodeError {
	return &DecodeError{Kind: NotPlausible}
}

func malformed(pos int, want string) *DecodeError {
	return &DecodeError{Kind: Malformed, Pos: pos, Want: want}
}

func badNumber(pos int, want string) *DecodeError {
	return &DecodeError{Kind: NumericFormat, Pos: pos, Want: want}
}
