package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline/pkg/codec"
	"github.com/opline/opline/pkg/syntax"
)

func TestEncoderOperators(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixBegin)
	e.WriteString("ds", "hello")
	e.WriteLong("it", 5)
	e.WriteUint("ps", 12)

	assert.Equal(t, "B(ds|hello;it=5;ps=12)", e.Message())
}

func TestEncoderSparse(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixEnd)
	e.WriteString("ds", "")
	e.WriteLong("it", 0)
	e.WriteUint("ps", 0)
	e.WriteDouble("ld", 0)

	assert.Equal(t, "E()", e.Message(), "zero values must not be written")

	// The first actually written property gets the first-value marker,
	// no matter how many zero values were skipped before it.
	e.WriteLong("sp", 42)
	assert.Equal(t, "E(sp|42)", e.Message())
}

func TestEncoderQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "all good", "E(ds|all good)"},
		{"equals and marker stay plain", "a=b|c", "E(ds|a=b|c)"},
		{"separator", "a;b", `E(ds|"a;b")`},
		{"close marker", "done)", `E(ds|"done)")`},
		{"quote", `say "hi"`, `E(ds|"say \"hi\"")`},
		{"backslash", `C:\tmp`, `E(ds|"C:\\tmp")`},
		{"trailing backslash", `dir\`, `E(ds|"dir\\")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := codec.NewEncoder(syntax.PrefixEnd)
			e.WriteString("ds", tt.in)
			assert.Equal(t, tt.want, e.Message())
		})
	}
}

func TestEncoderMap(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixEnd)
	e.WriteMap("cx", []codec.Pair{
		{Key: "host", Value: "db1"},
		{Key: "attempt", Value: "2"},
	})

	// Entry order is the writer's order; values are always quoted.
	assert.Equal(t, `E(cx|[host:"db1",attempt:"2"])`, e.Message())
}

func TestEncoderMapEmpty(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixEnd)
	e.WriteMap("cx", nil)
	assert.Equal(t, "E(cx|[])", e.Message())
}

func TestEncoderMapReservedKey(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixEnd)
	e.WriteMap("cx", []codec.Pair{{Key: "a:b", Value: "v"}})
	assert.Equal(t, `E(cx|["a:b":"v"])`, e.Message())
}

func TestEncoderDouble(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixProgress)
	e.WriteDouble("ld", 0.25)
	msg := e.Message()
	require.Equal(t, "P(ld|0.25)", msg)
}

func TestEncoderNegativeLong(t *testing.T) {
	e := codec.NewEncoder(syntax.PrefixEnd)
	e.WriteLong("tl", -7)
	assert.Equal(t, "E(tl|-7)", e.Message())
}
