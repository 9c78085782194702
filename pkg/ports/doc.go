/*
Package ports defines the driven ports (interfaces) of the operation
tracker.

These interfaces decouple the core from its collaborators, so hosts can
swap the clock, the metrics probe, the output sink, and lifecycle
listeners without touching tracker code.

# Key Interfaces

  - Clock: nanosecond time source stamped into records.
  - Probe: samples process gauges (heap, goroutines, load) merged into
    records before encoding.
  - Sink: receives the readable and encoded line of every emitted event.
  - Observer: lifecycle listener fed record snapshots, the integration
    point for metrics and tracing adapters.
*/
package ports
