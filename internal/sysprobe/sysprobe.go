// Package sysprobe is the default metrics probe: heap in use, goroutine
// count, and the one-minute load average where the OS exposes one.
package sysprobe

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/opline/opline/pkg/ports"
)

const loadavgPath = "/proc/loadavg"

type probe struct{}

// New returns the system probe.
func New() ports.Probe {
	return probe{}
}

func (probe) Sample() ports.Gauges {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return ports.Gauges{
		HeapBytes:  int64(ms.HeapAlloc),
		Goroutines: int64(runtime.NumGoroutine()),
		Load:       loadAverage(),
	}
}

// loadAverage reads the one-minute load. Zero on platforms without
// /proc/loadavg; the field is simply absent from encoded records then.
func loadAverage() float64 {
	b, err := os.ReadFile(loadavgPath)
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}
