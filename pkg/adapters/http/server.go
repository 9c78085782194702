// Package http serves the debug surface of a running process: recent and
// active operations from a collector, wire-line decoding, and a live feed
// of emitted entries over Server-Sent Events.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opline/opline"
	"github.com/opline/opline/internal/logging"
	"github.com/opline/opline/pkg/codec"
	"github.com/opline/opline/pkg/collector"
	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
)

// Server answers debug queries against a collector and streams live
// entries to connected clients. It also implements ports.Sink; wired
// behind ports.Tee with the regular sink, the stream costs nothing
// until a client actually connects.
type Server struct {
	collector *collector.Collector
	streams   *StreamManager
	diag      *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithDiagnostics routes internal reporting to the given logger.
func WithDiagnostics(l *slog.Logger) Option {
	return func(s *Server) { s.diag = l }
}

// NewServer builds a debug server over the given collector.
func NewServer(col *collector.Collector, opts ...Option) *Server {
	s := &Server{
		collector: col,
		streams:   NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diag == nil {
		s.diag = logging.NewNop()
	}
	return s
}

// Handler returns the HTTP handler with all debug routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/ops", s.getOps)
	r.Get("/ops/active", s.getActive)
	r.Get("/categories", s.getCategories)
	r.Get("/decode", s.getDecode)
	r.Post("/decode", s.postDecode)
	r.Get("/events", s.subscribeEvents)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Enabled reports whether any stream client is connected.
func (s *Server) Enabled(ports.Severity) bool {
	return s.streams.Active() > 0
}

// streamEvent is the JSON shape delivered on the /events stream.
type streamEvent struct {
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
	Category string    `json:"category"`
	Readable string    `json:"readable"`
	Encoded  string    `json:"encoded,omitempty"`
}

// Emit forwards the entry to stream subscribers of its category.
func (s *Server) Emit(_ context.Context, e ports.Entry) error {
	payload, err := json.Marshal(streamEvent{
		Time:     e.Time,
		Severity: e.Severity.String(),
		Category: e.Category,
		Readable: e.Readable,
		Encoded:  e.Encoded,
	})
	if err != nil {
		return err
	}
	s.streams.Broadcast(e.Category, string(payload))
	return nil
}

var _ ports.Sink = (*Server)(nil)

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "opline-debug",
		"version": strings.TrimSpace(opline.Version),
	})
}

func (s *Server) getOps(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid filter: %v", err), http.StatusBadRequest)
		s.diag.Warn("ops: invalid filter", "error", err)
		return
	}
	out := s.collector.Recent(f)
	if out == nil {
		out = []*record.Record{}
	}
	s.writeJSON(w, out)
}

func (s *Server) getActive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.collector.Active())
}

func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.collector.Categories())
}

// decodeResponse carries one decoded wire line. Family is the message
// family letter the line turned out to be.
type decodeResponse struct {
	Family string         `json:"family"`
	Record *record.Record `json:"record"`
}

func (s *Server) getDecode(w http.ResponseWriter, r *http.Request) {
	s.decodeLine(w, r.URL.Query().Get("line"))
}

func (s *Server) postDecode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.diag.Warn("decode: invalid request body", "error", err)
		return
	}
	s.decodeLine(w, strings.TrimRight(string(body), "\r\n"))
}

func (s *Server) decodeLine(w http.ResponseWriter, line string) {
	if line == "" {
		http.Error(w, "Missing line", http.StatusBadRequest)
		return
	}
	rec, prefix, err := record.DecodeAny(line, record.Tolerant())
	if err != nil {
		if codec.IsNotPlausible(err) {
			http.Error(w, "Line carries no encoded message", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, fmt.Sprintf("Decode error: %v", err), http.StatusUnprocessableEntity)
		return
	}
	s.writeJSON(w, decodeResponse{Family: string(prefix), Record: rec})
}

// subscribeEvents handles the GET /events request (SSE). An optional
// category query parameter narrows the feed to one category.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.diag.Error("events: streaming not supported")
		return
	}
	category := r.URL.Query().Get("category")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(category)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.diag.Debug("stream client connected", "category", category)
	for {
		select {
		case <-r.Context().Done():
			s.diag.Debug("stream client disconnected", "category", category)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.diag.Error("response encode failed", "error", err)
	}
}

func parseFilter(q url.Values) (collector.Filter, error) {
	f := collector.Filter{
		Category: q.Get("category"),
		Op:       q.Get("op"),
	}
	var err error
	if f.FailedOnly, err = parseBool(q.Get("failed")); err != nil {
		return f, fmt.Errorf("failed: %w", err)
	}
	if f.SlowOnly, err = parseBool(q.Get("slow")); err != nil {
		return f, fmt.Errorf("slow: %w", err)
	}
	if v := q.Get("min_duration"); v != "" {
		if f.MinDuration, err = time.ParseDuration(v); err != nil {
			return f, fmt.Errorf("min_duration: %w", err)
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, fmt.Errorf("limit: %w", err)
		}
	}
	return f, nil
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
