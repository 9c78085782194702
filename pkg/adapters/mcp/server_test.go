package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/syntax"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func endedLine(op string, pos uint64, stopNS int64, failPath string) string {
	r := &record.Record{
		SessionID: "s1",
		Category:  "db",
		OpName:    op,
		Position:  pos,
		StartTime: 1_000_000_000,
		StopTime:  stopNS,
	}
	if failPath != "" {
		r.FailPath = failPath
	} else {
		r.OkPath = "ok"
	}
	return "09:00:00 INFO worker ready  " + r.Encode(syntax.PrefixEnd)
}

func TestDecodeLineTool(t *testing.T) {
	s := NewServer()

	out, err := s.handleDecodeLine(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"line": endedLine("fetch", 1, 1_002_000_000, ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "E", out.Family)
	require.NotNil(t, out.Record)
	assert.Equal(t, "fetch", out.Record.OpName)
	assert.Equal(t, 2*time.Millisecond, out.Record.Duration())

	_, err = s.handleDecodeLine(context.Background(), mcp.CallToolRequest{}, map[string]any{})
	assert.ErrorContains(t, err, "line is required")

	_, err = s.handleDecodeLine(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"line": "plain text without a payload",
	})
	assert.ErrorContains(t, err, "decode failed")
}

func TestScanLogTool(t *testing.T) {
	s := NewServer()
	path := writeLog(t,
		"starting worker pool",
		endedLine("fetch", 1, 1_002_000_000, ""),
		endedLine("fetch", 2, 1_005_000_000, "fail"),
		endedLine("save", 1, 1_001_000_000, ""),
	)

	out, err := s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path": path,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Scanned)
	assert.Equal(t, 3, out.Messages)
	assert.Zero(t, out.Broken)
	assert.Len(t, out.Records, 3)
	assert.False(t, out.Truncated)

	out, err = s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path":        path,
		"failed_only": true,
	})
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, uint64(2), out.Records[0].Position)

	out, err = s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path":  path,
		"op":    "fetch",
		"limit": float64(1),
	})
	require.NoError(t, err)
	assert.Len(t, out.Records, 1)
	assert.True(t, out.Truncated)

	out, err = s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path":         path,
		"min_duration": "3ms",
	})
	require.NoError(t, err)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "fail", out.Records[0].FailPath)

	_, err = s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path":         path,
		"min_duration": "not a duration",
	})
	assert.ErrorContains(t, err, "min_duration")

	_, err = s.handleScanLog(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path": filepath.Join(t.TempDir(), "absent.log"),
	})
	assert.ErrorContains(t, err, "scan failed")
}

func TestLogStatsTool(t *testing.T) {
	s := NewServer()
	path := writeLog(t,
		endedLine("fetch", 1, 1_002_000_000, ""),
		endedLine("fetch", 2, 1_005_000_000, "fail"),
		"noise line",
	)

	st, err := s.handleLogStats(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"path": path,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, st.Scanned)
	assert.Equal(t, 2, st.Ended)
	require.Len(t, st.Keys, 1)
	assert.Equal(t, 2, st.Keys[0].Count)
	assert.Equal(t, 1, st.Keys[0].Failed)
	assert.Equal(t, 5*time.Millisecond, st.Keys[0].Max)
}
