package opline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline"
	"github.com/opline/opline/internal/testutils"
	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/registry"
)

func TestFromContextEmpty(t *testing.T) {
	_, ok := opline.FromContext(context.Background())
	assert.False(t, ok)
}

func TestBeginCarriesOperation(t *testing.T) {
	h := newHarness(t)

	ctx, op := h.log.Begin(context.Background(), "handle")

	got, ok := opline.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, op, got)
	assert.True(t, op.Record().IsStarted())
	assert.Len(t, h.sink.Entries(), 1)

	op.Ok()
	assert.Zero(t, h.warns())
}

func TestBeginNestsWithinSameCategory(t *testing.T) {
	h := newHarness(t)

	ctx, parent := h.log.Begin(context.Background(), "handle")
	parent.Set("req", "r1")

	_, child := h.log.Begin(ctx, "fetch")

	rec := child.Record()
	assert.Equal(t, "handle.fetch", rec.OpName)
	assert.Equal(t, "db/handle#1", rec.ParentID)
	v, ok := rec.Context.Get("req")
	require.True(t, ok)
	assert.Equal(t, "r1", v)

	child.Ok()
	parent.Ok()
	assert.Zero(t, h.warns())
}

func TestBeginLinksAcrossCategories(t *testing.T) {
	h := newHarness(t)
	sink := testutils.NewSink(ports.Debug)
	net := opline.New("net",
		opline.WithSink(sink),
		opline.WithClock(h.clock),
		opline.WithProbe(ports.NopProbe{}),
		opline.WithRegistry(registry.New()),
		opline.WithSession("s-test"),
	)

	ctx, parent := h.log.Begin(context.Background(), "handle")
	_, child := net.Begin(ctx, "dial")

	rec := child.Record()
	assert.Equal(t, "net", rec.Category)
	assert.Equal(t, "dial", rec.OpName, "foreign parents do not contribute a name prefix")
	assert.Equal(t, "db/handle#1", rec.ParentID)

	child.Ok()
	parent.Ok()
	assert.Zero(t, h.warns())
}

func TestBeginChildVisibleToCallees(t *testing.T) {
	h := newHarness(t)

	ctx, parent := h.log.Begin(context.Background(), "handle")
	ctx2, child := h.log.Begin(ctx, "fetch")

	// The derived context carries the child; the original still carries
	// the parent.
	got, _ := opline.FromContext(ctx2)
	assert.Same(t, child, got)
	got, _ = opline.FromContext(ctx)
	assert.Same(t, parent, got)

	child.Ok()
	parent.Ok()
}
