package codec

import (
	"sort"
	"strconv"
	"strings"

	"github.com/opline/opline/pkg/syntax"
)

// Decoder reads the properties of one encoded message in a single forward
// pass. Create with NewDecoder, then alternate Key and one Read call per
// property, and call Finish after the last one:
//
//	d, err := codec.NewDecoder(line, syntax.PrefixEnd)
//	for d.More() {
//		key, err := d.Key()
//		...dispatch on key to ReadString / ReadLong / ReadMap...
//	}
//	err = d.Finish()
//
// The decoder does no backtracking; errors report the byte offset into the
// original line.
type Decoder struct {
	src   string
	pos   int
	first bool
}

// Plausible reports whether line contains something worth decoding as the
// given family: a data-open byte directly preceded by the prefix, with a
// data-close byte somewhere after it. The check is anchored on the first
// data-open byte of the line, so host prefixes must not contain one.
func Plausible(line string, prefix byte) bool {
	_, ok := plausibleOpen(line, prefix)
	return ok
}

func plausibleOpen(line string, prefix byte) (int, bool) {
	i := strings.IndexByte(line, syntax.DataOpen)
	if i < 1 || line[i-1] != prefix {
		return 0, false
	}
	if strings.IndexByte(line[i+1:], syntax.DataClose) < 0 {
		return 0, false
	}
	return i, true
}

// NewDecoder locates the payload of the given family inside line. A line
// that fails the plausibility check yields a DecodeError of kind
// NotPlausible; see IsNotPlausible.
func NewDecoder(line string, prefix byte) (*Decoder, error) {
	open, ok := plausibleOpen(line, prefix)
	if !ok {
		return nil, notPlausible()
	}
	return &Decoder{src: line, pos: open + 1, first: true}, nil
}

// More reports whether another property follows. It stays true on truncated
// input; Finish tells truncation apart from a clean end.
func (d *Decoder) More() bool {
	return d.pos < len(d.src) && d.src[d.pos] != syntax.DataClose
}

// Offset returns the current byte offset into the original line.
func (d *Decoder) Offset() int {
	return d.pos
}

// Key reads the next property key and its operator. The first property is
// introduced by the first-value marker, every later one by a property
// separator and the equals byte.
func (d *Decoder) Key() (string, error) {
	if !d.first {
		if err := d.expect(syntax.PropSep, "property separator"); err != nil {
			return "", err
		}
	}
	start := d.pos
	if d.pos >= len(d.src) || !syntax.IsIdentStart(d.src[d.pos]) {
		return "", malformed(d.pos, "property key")
	}
	d.pos++
	for d.pos < len(d.src) && syntax.IsIdentPart(d.src[d.pos]) {
		d.pos++
	}
	key := d.src[start:d.pos]
	if d.first {
		if err := d.expect(syntax.FirstValue, "first-value marker"); err != nil {
			return "", err
		}
		d.first = false
	} else {
		if err := d.expect(syntax.Equals, "key/value equals"); err != nil {
			return "", err
		}
	}
	return key, nil
}

// ReadString reads a string value, quoted or plain.
func (d *Decoder) ReadString() (string, error) {
	if d.pos < len(d.src) && d.src[d.pos] == syntax.Quote {
		return d.readQuoted()
	}
	return d.readPlain(), nil
}

// ReadLong reads a signed integer value. An empty value is a numeric format
// error; use ReadLongOrZero where absence means zero.
func (d *Decoder) ReadLong() (int64, error) {
	start := d.pos
	s := d.readPlain()
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, badNumber(start, "integer digits")
	}
	return v, nil
}

// ReadLongOrZero reads a signed integer value, mapping an empty value to
// zero instead of failing.
func (d *Decoder) ReadLongOrZero() (int64, error) {
	if d.atValueEnd() {
		return 0, nil
	}
	return d.ReadLong()
}

// ReadUint reads an unsigned integer value.
func (d *Decoder) ReadUint() (uint64, error) {
	start := d.pos
	s := d.readPlain()
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, badNumber(start, "unsigned integer digits")
	}
	return v, nil
}

// ReadUintOrZero reads an unsigned integer value, mapping an empty value to
// zero.
func (d *Decoder) ReadUintOrZero() (uint64, error) {
	if d.atValueEnd() {
		return 0, nil
	}
	return d.ReadUint()
}

// ReadDouble reads a floating point value.
func (d *Decoder) ReadDouble() (float64, error) {
	start := d.pos
	s := d.readPlain()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, badNumber(start, "floating point digits")
	}
	return v, nil
}

// ReadDoubleOrZero reads a floating point value, mapping an empty value to
// zero.
func (d *Decoder) ReadDoubleOrZero() (float64, error) {
	if d.atValueEnd() {
		return 0, nil
	}
	return d.ReadDouble()
}

// ReadMap reads a bracketed value map. Entries come back sorted by key,
// regardless of wire order. Map values must be quoted; keys are plain
// unless the writer had to quote them.
func (d *Decoder) ReadMap() ([]Pair, error) {
	if err := d.expect(syntax.MapOpen, "map open"); err != nil {
		return nil, err
	}
	entries := []Pair{}
	for {
		if d.pos >= len(d.src) {
			return nil, malformed(d.pos, "map close")
		}
		if d.src[d.pos] == syntax.MapClose {
			d.pos++
			break
		}
		key, err := d.readMapKey()
		if err != nil {
			return nil, err
		}
		if err := d.expect(syntax.KeyValSep, "map key/value separator"); err != nil {
			return nil, err
		}
		val, err := d.readQuoted()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Pair{Key: key, Value: val})
		if d.pos < len(d.src) && d.src[d.pos] == syntax.PairSep {
			d.pos++
			continue
		}
		if d.pos >= len(d.src) || d.src[d.pos] != syntax.MapClose {
			return nil, malformed(d.pos, "map pair separator or map close")
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// SkipValue discards the next value by shape. Used by tolerant readers on
// unknown property keys.
func (d *Decoder) SkipValue() error {
	if d.pos < len(d.src) {
		switch d.src[d.pos] {
		case syntax.Quote:
			_, err := d.readQuoted()
			return err
		case syntax.MapOpen:
			_, err := d.ReadMap()
			return err
		}
	}
	d.readPlain()
	return nil
}

// Finish verifies the payload ended on a data-close byte. It is the only
// way to notice a truncated message, since More turns false at end of
// input too.
func (d *Decoder) Finish() error {
	if d.pos >= len(d.src) || d.src[d.pos] != syntax.DataClose {
		return malformed(d.pos, "data-close marker")
	}
	return nil
}

func (d *Decoder) expect(b byte, want string) error {
	if d.pos >= len(d.src) || d.src[d.pos] != b {
		return malformed(d.pos, want)
	}
	d.pos++
	return nil
}

// atValueEnd reports whether the current value is empty, i.e. the cursor
// already sits on a terminator.
func (d *Decoder) atValueEnd() bool {
	return d.pos >= len(d.src) ||
		d.src[d.pos] == syntax.PropSep ||
		d.src[d.pos] == syntax.DataClose
}

// readPlain consumes up to the next property separator or data-close byte.
// Plain values carry no escapes; every byte is literal.
func (d *Decoder) readPlain() string {
	start := d.pos
	for d.pos < len(d.src) {
		b := d.src[d.pos]
		if b == syntax.PropSep || b == syntax.DataClose {
			break
		}
		d.pos++
	}
	return d.src[start:d.pos]
}

// readQuoted consumes a delimited string, resolving escape sequences. An
// escaped quote or escape byte yields the bare byte; any other escaped byte
// is passed through with its backslash, tolerating foreign writers.
func (d *Decoder) readQuoted() (string, error) {
	if err := d.expect(syntax.Quote, "string delimiter"); err != nil {
		return "", err
	}
	var out []byte
	for d.pos < len(d.src) {
		b := d.src[d.pos]
		switch b {
		case syntax.Quote:
			d.pos++
			return string(out), nil
		case syntax.Escape:
			if d.pos+1 >= len(d.src) {
				return "", malformed(d.pos, "escaped character")
			}
			next := d.src[d.pos+1]
			if next != syntax.Quote && next != syntax.Escape {
				out = append(out, syntax.Escape)
			}
			out = append(out, next)
			d.pos += 2
		default:
			out = append(out, b)
			d.pos++
		}
	}
	return "", malformed(d.pos, "closing string delimiter")
}

// readMapKey reads a map key, quoted or plain up to the key/value
// separator.
func (d *Decoder) readMapKey() (string, error) {
	if d.pos < len(d.src) && d.src[d.pos] == syntax.Quote {
		return d.readQuoted()
	}
	start := d.pos
	for d.pos < len(d.src) {
		b := d.src[d.pos]
		if b == syntax.KeyValSep || b == syntax.PairSep || b == syntax.MapClose {
			break
		}
		d.pos++
	}
	return d.src[start:d.pos], nil
}
