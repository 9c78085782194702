/*
Package opline tracks operations (units of work being timed and audited) and emits two synchronized views of every lifecycle event into one log stream: a human-readable summary line and a machine-parsable encoded line sharing a compact textual grammar.

It implements a "report, never throw" instrumentation core: out-of-order calls, bad arguments, and even panicking collaborators are reported on a diagnostics channel while the host application keeps running untouched.

# Concept

An operation is created by a category-scoped Logger, moves through Scheduled and Started, and ends in exactly one of OK, Reject, or Fail. Each transition stamps the operation's record (timestamps, iteration counters, outcome paths, context annotations) and hands a readable plus encoded line pair to a pluggable sink. Encoded lines survive the trip through any log pipeline: the decoder later locates the encoded span inside arbitrary text and reconstructs the record field by field.

# Key Features

  - Round-trip codec: decode(encode(record)) is field-by-field equal, including escaped strings and nested context maps.
  - Unique positions: every operation gets a strictly increasing position per category/name key from a linearizable registry.
  - Sub-operations: children inherit category, name prefix, and a context copy, and link to the parent by id.
  - Cheap when silent: below the sink's severity threshold, gauge sampling and encoding are skipped entirely.
  - Pluggable edges: sinks (console, Redis stream), observers (Prometheus, OpenTelemetry, in-memory collector), probe, and clock are all interfaces.

# Usage

	package main

	import (
		"errors"

		"github.com/opline/opline"
	)

	func main() {
		log := opline.New("db")

		op := log.Op("fetch").Describe("load user batch").Set("host", "db1")
		defer op.Close()

		op.Iterations(3).Start()
		for i := 0; i < 3; i++ {
			op.Inc().Progress()
		}

		if err := errors.New("connection refused"); err != nil {
			op.Fail(err)
			return
		}
		op.Ok()
	}

Within request-scoped code, Begin carries the current operation through context.Context so that nested calls attach sub-operations to the right parent:

	ctx, op := log.Begin(ctx, "handle")
	defer op.Close()
	doWork(ctx)
	op.Ok()
*/
package opline
