package opline_test

import (
	"context"
	"fmt"
	"time"

	"github.com/opline/opline"
	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/registry"
)

// printSink writes readable lines to stdout so example output stays
// deterministic.
type printSink struct{}

func (printSink) Enabled(ports.Severity) bool { return true }

func (printSink) Emit(_ context.Context, e ports.Entry) error {
	fmt.Println(e.Readable)
	return nil
}

// stepClock advances one millisecond per reading.
func stepClock() ports.Clock {
	var now int64
	return ports.ClockFunc(func() int64 {
		now += int64(time.Millisecond)
		return now
	})
}

func exampleLogger(category string) *opline.Logger {
	return opline.New(category,
		opline.WithSink(printSink{}),
		opline.WithProbe(ports.NopProbe{}),
		opline.WithClock(stepClock()),
		opline.WithRegistry(registry.New()),
		opline.WithSession("run-1"),
	)
}

func ExampleLogger() {
	log := exampleLogger("db")

	op := log.Op("fetch").Describe("load users")
	op.Start()
	op.Ok()

	// Output:
	// db/fetch#1 begun: load users
	// db/fetch#1 ok in 2ms
}

func ExampleOp_Sub() {
	log := exampleLogger("db")

	op := log.Op("fetch").Start()
	sub := op.Sub("page").Set("page", "1")
	sub.Start()
	sub.Ok()
	op.Ok()

	// Output:
	// db/fetch#1 begun
	// db/fetch.page#1 begun page=1
	// db/fetch.page#1 ok in 2ms page=1
	// db/fetch#1 ok in 7ms
}

func ExampleOp_Close() {
	log := exampleLogger("db")

	save := func() {
		op := log.Op("save").Start()
		defer op.Close()
		// Returns without calling Ok, Reject, or Fail: Close reports the
		// abandonment and fails the operation on the fixed closed path.
	}
	save()

	// Output:
	// db/save#1 begun
	// db/save#1 fail closed in 2ms
}
