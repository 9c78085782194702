package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline/pkg/collector"
	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/syntax"
)

func finished(category, op string, pos uint64) *record.Record {
	return &record.Record{
		SessionID: "s1",
		Category:  category,
		OpName:    op,
		Position:  pos,
		StartTime: 1_000_000_000,
		StopTime:  3_000_000_000,
		OkPath:    "ok",
	}
}

func newTestServer() (*Server, http.Handler, *collector.Collector) {
	col := collector.New(0)
	srv := NewServer(col)
	return srv, srv.Handler(), col
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	_, h, _ := newTestServer()

	w := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOpsQueryAndFilters(t *testing.T) {
	_, h, col := newTestServer()
	col.OpFinished(finished("db", "fetch", 1))
	failed := finished("db", "save", 1)
	failed.OkPath = ""
	failed.FailPath = "fail"
	failed.StopTime = 4_000_000_000
	col.OpFinished(failed)

	w := get(t, h, "/ops")
	require.Equal(t, http.StatusOK, w.Code)
	var all []record.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, "save", all[0].OpName, "newest finish first")

	w = get(t, h, "/ops?failed=true")
	var onlyFailed []record.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &onlyFailed))
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, "save", onlyFailed[0].OpName)

	w = get(t, h, "/ops?limit=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpsEmptyIsArray(t *testing.T) {
	_, h, _ := newTestServer()

	w := get(t, h, "/ops")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestActiveAndCategories(t *testing.T) {
	_, h, col := newTestServer()
	running := finished("db", "fetch", 1)
	running.StopTime = 0
	running.OkPath = ""
	col.OpStarted(running)
	col.OpFinished(finished("net", "dial", 1))

	w := get(t, h, "/ops/active")
	var active []record.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	require.Len(t, active, 1)
	assert.Equal(t, "fetch", active[0].OpName)

	w = get(t, h, "/categories")
	assert.JSONEq(t, `["net"]`, w.Body.String())
}

func TestDecodeExtractsEmbeddedMessage(t *testing.T) {
	_, h, _ := newTestServer()
	line := "09:26:53 INFO db/fetch#1 ok in 2s  " + finished("db", "fetch", 1).Encode(syntax.PrefixEnd)

	w := get(t, h, "/decode?line="+url.QueryEscape(line))
	require.Equal(t, http.StatusOK, w.Code)

	var resp decodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "E", resp.Family)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "fetch", resp.Record.OpName)
	assert.Equal(t, uint64(1), resp.Record.Position)
}

func TestDecodeRejections(t *testing.T) {
	_, h, _ := newTestServer()

	w := get(t, h, "/decode")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, h, "/decode?line=plain+text+line")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPostDecode(t *testing.T) {
	_, h, _ := newTestServer()
	line := finished("db", "fetch", 1).Encode(syntax.PrefixEnd)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/decode", strings.NewReader(line+"\n")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp decodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "E", resp.Family)
}

func TestEnabledTracksSubscribers(t *testing.T) {
	srv, _, _ := newTestServer()

	assert.False(t, srv.Enabled(ports.Info))
	_, cancel := srv.streams.Subscribe("")
	assert.True(t, srv.Enabled(ports.Info))
	cancel()
	assert.False(t, srv.Enabled(ports.Info))
}

func TestEmitReachesCategorySubscribers(t *testing.T) {
	srv, _, _ := newTestServer()
	ch, cancel := srv.streams.Subscribe("db")
	defer cancel()

	entry := func(category string) ports.Entry {
		return ports.Entry{
			Time:     time.Unix(0, 3_000_000_000),
			Severity: ports.Info,
			Category: category,
			Readable: category + "/fetch#1 ok in 2s",
		}
	}
	require.NoError(t, srv.Emit(context.Background(), entry("net")))
	require.NoError(t, srv.Emit(context.Background(), entry("db")))

	require.Len(t, ch, 1)
	msg := <-ch
	assert.Contains(t, msg, `"category":"db"`)
	assert.Contains(t, msg, `"readable":"db/fetch#1 ok in 2s"`)
}

func TestEventsStream(t *testing.T) {
	srv, h, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return srv.Enabled(ports.Info)
	}, time.Second, 5*time.Millisecond, "subscription should register")

	require.NoError(t, srv.Emit(context.Background(), ports.Entry{
		Time:     time.Unix(0, 3_000_000_000),
		Severity: ports.Info,
		Category: "db",
		Readable: "db/fetch#1 ok in 2s",
		Encoded:  "E(sn|s1;ps=1;ca=db;on=fetch)",
	}))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, `"readable":"db/fetch#1 ok in 2s"`)
	assert.Contains(t, body, `"encoded":"E(sn|s1;ps=1;ca=db;on=fetch)"`)
}
