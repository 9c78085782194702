package scan_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline/internal/scan"
	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/syntax"
)

func ended(category, op string, pos uint64, startNS, stopNS int64) *record.Record {
	return &record.Record{
		SessionID: "s1",
		Category:  category,
		OpName:    op,
		Position:  pos,
		StartTime: startNS,
		StopTime:  stopNS,
		OkPath:    "ok",
	}
}

func hostLine(encoded string) string {
	return "09:26:53.589 INFO  db/fetch#1 ok in 2ms  " + encoded
}

func TestReaderSkipsPlainLines(t *testing.T) {
	begun := &record.Record{SessionID: "s1", Category: "db", OpName: "fetch", Position: 1, StartTime: 1}
	input := strings.Join([]string{
		"starting worker pool",
		hostLine(begun.Encode(syntax.PrefixBegin)),
		"plain line with no payload",
		hostLine(ended("db", "fetch", 1, 1_000_000_000, 1_002_000_000).Encode(syntax.PrefixEnd)),
	}, "\n")

	res, err := scan.Reader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Scanned)
	require.Len(t, res.Lines, 2)
	assert.Empty(t, res.Broken)
	assert.Equal(t, syntax.PrefixBegin, res.Lines[0].Family)
	assert.Equal(t, 2, res.Lines[0].Number)
	assert.Equal(t, syntax.PrefixEnd, res.Lines[1].Family)
	assert.Equal(t, "fetch", res.Lines[1].Record.OpName)
}

func TestReaderRecordsBrokenLines(t *testing.T) {
	input := strings.Join([]string{
		hostLine(ended("db", "fetch", 1, 1_000_000_000, 1_002_000_000).Encode(syntax.PrefixEnd)),
		`broken payload E(sn|"unterminated)`,
	}, "\n")

	res, err := scan.Reader(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	require.Len(t, res.Broken, 1)
	assert.Equal(t, 2, res.Broken[0].Number)
	assert.Error(t, res.Broken[0].Err)
}

func TestFileMissing(t *testing.T) {
	_, err := scan.File("/no/such/file.log")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSummarize(t *testing.T) {
	begun := &record.Record{SessionID: "s1", Category: "db", OpName: "fetch", Position: 1, StartTime: 1}
	progress := begun.Clone()
	progress.Iteration = 3
	failed := ended("db", "fetch", 2, 1_000_000_000, 1_005_000_000)
	failed.OkPath = ""
	failed.FailPath = "fail"
	rejected := ended("net", "dial", 1, 0, 2_000_000_000)
	rejected.OkPath = ""
	rejected.RejectPath = "busy"

	input := strings.Join([]string{
		hostLine(begun.Encode(syntax.PrefixBegin)),
		hostLine(progress.Encode(syntax.PrefixProgress)),
		hostLine(ended("db", "fetch", 1, 1_000_000_000, 1_002_000_000).Encode(syntax.PrefixEnd)),
		hostLine(failed.Encode(syntax.PrefixEnd)),
		hostLine(rejected.Encode(syntax.PrefixEnd)),
		"no payload here",
	}, "\n")

	res, err := scan.Reader(strings.NewReader(input))
	require.NoError(t, err)
	st := scan.Summarize(res)

	assert.Equal(t, 6, st.Scanned)
	assert.Equal(t, 5, st.Messages)
	assert.Equal(t, 1, st.Begun)
	assert.Equal(t, 1, st.Progress)
	assert.Equal(t, 3, st.Ended)

	require.Len(t, st.Keys, 2)
	fetch := st.Keys[0]
	assert.Equal(t, "db", fetch.Category)
	assert.Equal(t, "fetch", fetch.Op)
	assert.Equal(t, 2, fetch.Count)
	assert.Equal(t, 1, fetch.OK)
	assert.Equal(t, 1, fetch.Failed)
	assert.Equal(t, 2*time.Millisecond, fetch.Min)
	assert.Equal(t, 5*time.Millisecond, fetch.Max)
	assert.Equal(t, 3500*time.Microsecond, fetch.Mean)
	assert.Equal(t, 7*time.Millisecond, fetch.Total)

	dial := st.Keys[1]
	assert.Equal(t, "net", dial.Category)
	assert.Equal(t, 1, dial.Rejected)
	assert.Zero(t, dial.Min, "no start stamp means no duration")
}

func TestSummarizeCountsSlow(t *testing.T) {
	slow := ended("db", "fetch", 1, 1_000_000_000, 1_005_000_000)
	slow.TimeLimit = int64(2 * time.Millisecond)

	res, err := scan.Reader(strings.NewReader(hostLine(slow.Encode(syntax.PrefixEnd))))
	require.NoError(t, err)
	st := scan.Summarize(res)

	require.Len(t, st.Keys, 1)
	assert.Equal(t, 1, st.Keys[0].Slow)
}

func TestMarkdownReport(t *testing.T) {
	res, err := scan.Reader(strings.NewReader(
		hostLine(ended("db", "fetch", 1, 1_000_000_000, 1_002_000_000).Encode(syntax.PrefixEnd)),
	))
	require.NoError(t, err)
	md := scan.Summarize(res).Markdown()

	assert.Contains(t, md, "# Operation log report")
	assert.Contains(t, md, "Scanned 1 lines: 1 messages (0 begun, 0 progress, 1 ended), 0 broken.")
	assert.Contains(t, md, "| db/fetch | 1 | 1 | 0 | 0 | 0 | 2ms | 2ms | 2ms |")

	empty := scan.Summarize(&scan.Result{}).Markdown()
	assert.Contains(t, empty, "No finished operations.")
}
