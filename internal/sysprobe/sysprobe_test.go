package sysprobe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opline/opline/internal/sysprobe"
)

func TestSample(t *testing.T) {
	g := sysprobe.New().Sample()

	assert.Positive(t, g.HeapBytes, "a running Go process always has heap in use")
	assert.Positive(t, g.Goroutines)
	assert.GreaterOrEqual(t, g.Load, 0.0)
}
