// Package syntax defines the fixed grammar of encoded operation lines.
//
// An encoded message is a single-line payload of the form
//
//	<prefix>(<key>|<value>;<key>=<value>;...)
//
// where <prefix> is one byte naming the message family. All delimiters are
// ASCII and never change; decoders match on them literally.
package syntax

// Grammar delimiters.
const (
	DataOpen   byte = '(' // start of the payload
	DataClose  byte = ')' // end of the payload
	PropSep    byte = ';' // separates properties
	FirstValue byte = '|' // operator of the first property
	Equals     byte = '=' // operator of every later property
	Quote      byte = '"' // wraps values containing reserved bytes
	Escape     byte = '\\'
	MapOpen    byte = '['
	MapClose   byte = ']'
	PairSep    byte = ',' // separates map entries
	KeyValSep  byte = ':' // separates a map key from its value
)

// Message family prefixes. The prefix byte sits immediately before DataOpen.
const (
	PrefixBegin    byte = 'B' // operation begun
	PrefixProgress byte = 'P' // progress snapshot
	PrefixEnd      byte = 'E' // operation ended
)

// IsIdentStart reports whether b may open a property key.
func IsIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// IsIdentPart reports whether b may continue a property key.
func IsIdentPart(b byte) bool {
	return IsIdentStart(b) || (b >= '0' && b <= '9')
}

// ValidIdent reports whether s is a legal property key. The encoder trusts
// its fixed tokens and does not call this; it exists for consumers that
// accept keys from outside.
func ValidIdent(s string) bool {
	if s == "" || !IsIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentPart(s[i]) {
			return false
		}
	}
	return true
}
