package registry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextWrapsAfterMax(t *testing.T) {
	r := New()
	r.Next("k")
	r.counters["k"].Store(math.MaxUint64 - 1)

	assert.Equal(t, uint64(math.MaxUint64), r.Next("k"))
	assert.Equal(t, uint64(1), r.Next("k"), "the position after the maximum is 1, not 0")
	assert.Equal(t, uint64(2), r.Next("k"))
}
