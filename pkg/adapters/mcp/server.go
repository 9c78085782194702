// Package mcp exposes log decoding and scanning as Model Context
// Protocol tools, so AI agents can inspect operation logs directly.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opline/opline"
	"github.com/opline/opline/internal/logging"
	"github.com/opline/opline/internal/scan"
	"github.com/opline/opline/pkg/collector"
	"github.com/opline/opline/pkg/record"
)

// DecodeResult is the structured output of the decode_line tool.
type DecodeResult struct {
	Family string         `json:"family" jsonschema_description:"Message family letter: B begun, P progress, E ended"`
	Record *record.Record `json:"record" jsonschema_description:"The decoded operation record"`
}

// ScanResult is the structured output of the scan_log tool.
type ScanResult struct {
	Scanned   int              `json:"scanned" jsonschema_description:"Total lines read"`
	Messages  int              `json:"messages" jsonschema_description:"Lines carrying a decodable message"`
	Broken    int              `json:"broken" jsonschema_description:"Lines that looked like a message but failed to decode"`
	Records   []*record.Record `json:"records" jsonschema_description:"Records matching the filter, in input order"`
	Truncated bool             `json:"truncated" jsonschema_description:"True when the limit cut the record list"`
}

// Server exposes the log toolbox as an MCP server.
type Server struct {
	mcpServer *server.MCPServer
	diag      *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithDiagnostics routes internal reporting to the given logger.
func WithDiagnostics(l *slog.Logger) Option {
	return func(s *Server) { s.diag = l }
}

// NewServer creates the MCP server with all tools registered.
func NewServer(opts ...Option) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("opline-mcp", strings.TrimSpace(opline.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diag == nil {
		s.diag = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it
// down when ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.diag.Info("mcp server listening", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: decode_line
	decodeTool := mcp.NewTool("decode_line",
		mcp.WithDescription("Decode one log line carrying an encoded operation message. Returns the message family and the full record."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The raw log line")),
		mcp.WithOutputSchema[DecodeResult](),
	)
	s.mcpServer.AddTool(decodeTool, mcp.NewStructuredToolHandler(s.handleDecodeLine))

	// TOOL: scan_log
	scanTool := mcp.NewTool("scan_log",
		mcp.WithDescription("Scan a log file for encoded operation messages and return the records matching the filter."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the log file")),
		mcp.WithString("category", mcp.Description("Keep only this category")),
		mcp.WithString("op", mcp.Description("Keep only this operation name")),
		mcp.WithBoolean("failed_only", mcp.Description("Keep only failed operations")),
		mcp.WithBoolean("slow_only", mcp.Description("Keep only operations over their time limit")),
		mcp.WithString("min_duration", mcp.Description("Keep only operations at least this long, e.g. 250ms")),
		mcp.WithNumber("limit", mcp.Description("Cap the returned records (default 100)")),
		mcp.WithOutputSchema[ScanResult](),
	)
	s.mcpServer.AddTool(scanTool, mcp.NewStructuredToolHandler(s.handleScanLog))

	// TOOL: log_stats
	statsTool := mcp.NewTool("log_stats",
		mcp.WithDescription("Summarize a log file: message totals plus per-operation counts and durations."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the log file")),
		mcp.WithOutputSchema[scan.Stats](),
	)
	s.mcpServer.AddTool(statsTool, mcp.NewStructuredToolHandler(s.handleLogStats))
}

// Handler methods for structured tools

func (s *Server) handleDecodeLine(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (DecodeResult, error) {
	line, _ := args["line"].(string)
	if line == "" {
		return DecodeResult{}, fmt.Errorf("line is required")
	}
	rec, family, err := record.DecodeAny(line, record.Tolerant())
	if err != nil {
		return DecodeResult{}, fmt.Errorf("decode failed: %w", err)
	}
	return DecodeResult{Family: string(family), Record: rec}, nil
}

func (s *Server) handleScanLog(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ScanResult, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return ScanResult{}, fmt.Errorf("path is required")
	}

	var f collector.Filter
	f.Category, _ = args["category"].(string)
	f.Op, _ = args["op"].(string)
	f.FailedOnly, _ = args["failed_only"].(bool)
	f.SlowOnly, _ = args["slow_only"].(bool)
	if v, ok := args["min_duration"].(string); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ScanResult{}, fmt.Errorf("min_duration: %w", err)
		}
		f.MinDuration = d
	}
	limit := 100
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	res, err := scan.File(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan failed: %w", err)
	}

	out := ScanResult{
		Scanned:  res.Scanned,
		Messages: len(res.Lines),
		Broken:   len(res.Broken),
		Records:  []*record.Record{},
	}
	for _, ln := range res.Lines {
		if !f.Matches(ln.Record) {
			continue
		}
		if len(out.Records) == limit {
			out.Truncated = true
			break
		}
		out.Records = append(out.Records, ln.Record)
	}
	return out, nil
}

func (s *Server) handleLogStats(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (scan.Stats, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return scan.Stats{}, fmt.Errorf("path is required")
	}
	res, err := scan.File(path)
	if err != nil {
		return scan.Stats{}, fmt.Errorf("scan failed: %w", err)
	}
	return *scan.Summarize(res), nil
}

func (s *Server) registerResources() {
	// EXPOSE: opline://wire-format
	s.mcpServer.AddResource(mcp.NewResource("opline://wire-format", "Wire Format Reference",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "opline://wire-format",
				MIMEType: "text/markdown",
				Text:     wireFormatDoc,
			},
		}, nil
	})
}

const wireFormatDoc = `# Operation wire format

Every emitted log line may carry one encoded message of the form

    <prefix>(<key>|<value>;<key>=<value>;...)

where the prefix byte names the message family:

- ` + "`B`" + ` - operation begun
- ` + "`P`" + ` - progress snapshot
- ` + "`E`" + ` - operation ended

The first property uses ` + "`|`" + ` as its operator, every later one
` + "`;key=`" + `. Values holding reserved bytes are wrapped in double
quotes with ` + "`\\\"`" + ` and ` + "`\\\\`" + ` escapes. Map values use
` + "`[k:v,k:v]`" + `. Properties holding their zero value are omitted.

Property keys: sn session, ps position, ca category, on operation name,
pa parent id, ds description, ct/st/sp create/start/stop time (Unix
nanoseconds), tl time limit, it iteration, ei expected iterations,
op/rp/fp ok/reject/fail path, fm fail message, mem heap bytes, gor
goroutines, ld load, cx context map.

Use the decode_line tool for single lines and scan_log / log_stats for
whole files.
`
