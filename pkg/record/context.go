package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/opline/opline/pkg/codec"
)

// Context is the ordered key/value annotation set of an operation. Insertion
// order is preserved and significant for display; setting an existing key
// overwrites its value but keeps its position. The zero value is empty and
// ready to use.
//
// Note the asymmetry with the wire format: the encoder writes entries in
// insertion order, but a decoded record carries them sorted by key, because
// the map reader normalizes order.
type Context struct {
	keys []string
	vals map[string]string
}

// Set stores a value under key, appending the key on first use.
func (c *Context) Set(key, value string) {
	if c.vals == nil {
		c.vals = make(map[string]string)
	}
	if _, ok := c.vals[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.vals[key] = value
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (string, bool) {
	v, ok := c.vals[key]
	return v, ok
}

// Len returns the number of entries.
func (c *Context) Len() int {
	return len(c.keys)
}

// Keys returns the keys in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Pairs returns the entries in insertion order, in the codec's map shape.
func (c *Context) Pairs() []codec.Pair {
	out := make([]codec.Pair, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, codec.Pair{Key: k, Value: c.vals[k]})
	}
	return out
}

// Clone returns an independent copy.
func (c *Context) Clone() Context {
	out := Context{}
	for _, k := range c.keys {
		out.Set(k, c.vals[k])
	}
	return out
}

// String renders the entries as k=v pairs in insertion order.
func (c *Context) String() string {
	var buf bytes.Buffer
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(c.vals[k])
	}
	return buf.String()
}

// MarshalJSON renders an ordered JSON object.
func (c Context) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(c.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the document's key order.
func (c *Context) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("context: expected JSON object, got %v", tok)
	}
	*c = Context{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("context: expected string key, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("context: value of %q is not a string", key)
		}
		c.Set(key, val)
	}
	_, err = dec.Token() // closing brace
	return err
}
