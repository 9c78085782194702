package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline/pkg/adapters/redis"
	"github.com/opline/opline/pkg/ports"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestEmitAppendsToStream(t *testing.T) {
	_, client := setup(t)
	sink := redis.NewSink(client, redis.WithStream("test:events"))

	entry := ports.Entry{
		Time:     time.Unix(0, 1_000_000_000),
		Severity: ports.Warn,
		Category: "db",
		Readable: "db/fetch#1 reject busy in 2ms",
		Encoded:  `E(sn|s1;ps=1;ca=db;on=fetch;rp=busy)`,
	}
	require.NoError(t, sink.Emit(context.Background(), entry))

	msgs, err := client.XRange(context.Background(), "test:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "1000000000", msgs[0].Values["ts"])
	assert.Equal(t, "warn", msgs[0].Values["severity"])
	assert.Equal(t, "db", msgs[0].Values["category"])
	assert.Equal(t, entry.Readable, msgs[0].Values["readable"])
	assert.Equal(t, entry.Encoded, msgs[0].Values["encoded"])
}

func TestEnabledHonorsMinSeverity(t *testing.T) {
	_, client := setup(t)
	sink := redis.NewSink(client, redis.WithMinSeverity(ports.Warn))

	assert.False(t, sink.Enabled(ports.Info))
	assert.True(t, sink.Enabled(ports.Warn))
	assert.True(t, sink.Enabled(ports.Error))
}

func TestEmitReportsBackendErrors(t *testing.T) {
	mr, client := setup(t)
	sink := redis.NewSink(client)

	mr.Close()
	err := sink.Emit(context.Background(), ports.Entry{Severity: ports.Info})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opline:events")
}
