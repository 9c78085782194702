//go:build property
// +build property

// Property-based tests for the codec round trip. Run with:
//
//	go test -tags property ./pkg/codec/
package codec_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/opline/opline/pkg/codec"
	"github.com/opline/opline/pkg/syntax"
)

func TestStringRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("any string survives encode/decode", prop.ForAll(
		func(v string) bool {
			if v == "" {
				return true // empty values are sparse-omitted by contract
			}
			e := codec.NewEncoder(syntax.PrefixEnd)
			e.WriteString("ds", v)

			d, err := codec.NewDecoder(e.Message(), syntax.PrefixEnd)
			if err != nil {
				return false
			}
			if _, err := d.Key(); err != nil {
				return false
			}
			got, err := d.ReadString()
			if err != nil {
				return false
			}
			return got == v && d.Finish() == nil
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestMapRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("any string map survives encode/decode sorted", prop.ForAll(
		func(m map[string]string) bool {
			in := make([]codec.Pair, 0, len(m))
			for k, v := range m {
				in = append(in, codec.Pair{Key: k, Value: v})
			}
			e := codec.NewEncoder(syntax.PrefixEnd)
			e.WriteMap("cx", in)

			d, err := codec.NewDecoder(e.Message(), syntax.PrefixEnd)
			if err != nil {
				return false
			}
			if _, err := d.Key(); err != nil {
				return false
			}
			got, err := d.ReadMap()
			if err != nil || len(got) != len(m) {
				return false
			}
			for i, p := range got {
				if i > 0 && got[i-1].Key > p.Key {
					return false
				}
				if m[p.Key] != p.Value {
					return false
				}
			}
			return d.Finish() == nil
		},
		gen.MapOf(gen.AnyString(), gen.AnyString()),
	))

	properties.TestingRun(t)
}

func TestNumericRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("any int64 survives encode/decode", prop.ForAll(
		func(v int64) bool {
			if v == 0 {
				return true
			}
			e := codec.NewEncoder(syntax.PrefixEnd)
			e.WriteLong("sp", v)

			d, err := codec.NewDecoder(e.Message(), syntax.PrefixEnd)
			if err != nil {
				return false
			}
			if _, err := d.Key(); err != nil {
				return false
			}
			got, err := d.ReadLong()
			return err == nil && got == v
		},
		gen.Int64(),
	))

	properties.Property("any float64 survives encode/decode", prop.ForAll(
		func(v float64) bool {
			if v == 0 {
				return true
			}
			e := codec.NewEncoder(syntax.PrefixEnd)
			e.WriteDouble("ld", v)

			d, err := codec.NewDecoder(e.Message(), syntax.PrefixEnd)
			if err != nil {
				return false
			}
			if _, err := d.Key(); err != nil {
				return false
			}
			got, err := d.ReadDouble()
			return err == nil && got == v
		},
		gen.Float64(),
	))

	properties.TestingRun(t)
}
