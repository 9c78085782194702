package ports

// Gauges are the process metrics merged into a record right before it is
// encoded. The tracker treats them as opaque numbers; whatever the probe
// reports is what goes on the wire.
type Gauges struct {
	HeapBytes  int64
	Goroutines int64
	Load       float64
}

// Probe samples process gauges. Sample is called on every emitted event
// whose severity is enabled, so implementations should stay cheap.
type Probe interface {
	Sample() Gauges
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() Gauges

func (f ProbeFunc) Sample() Gauges { return f() }

// NopProbe reports no gauges. Useful in tests and for hosts that do not
// want runtime metrics on their events.
type NopProbe struct{}

func (NopProbe) Sample() Gauges { return Gauges{} }
