package opline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opline/opline/pkg/record"
	"github.com/opline/opline/pkg/syntax"
)

// readable renders the human summary line for one lifecycle event,
// honoring the display toggles. It deliberately avoids the data-open
// character so that a sink appending the encoded span to the same line
// keeps that span extractable.
func (l *Logger) readable(rec *record.Record, prefix byte, now int64) string {
	cfg := l.settings.Current()

	var b strings.Builder
	b.WriteString(identity(rec, cfg.ShowCategory, cfg.ShowPosition))

	switch prefix {
	case syntax.PrefixBegin:
		b.WriteString(" begun")
		if rec.Description != "" {
			b.WriteString(": ")
			b.WriteString(rec.Description)
		}
	case syntax.PrefixProgress:
		b.WriteString(" at ")
		b.WriteString(strconv.FormatInt(rec.Iteration, 10))
		if rec.ExpectedIterations > 0 {
			b.WriteByte('/')
			b.WriteString(strconv.FormatInt(rec.ExpectedIterations, 10))
			fmt.Fprintf(&b, " %d%%", rec.Iteration*100/rec.ExpectedIterations)
		}
		if rec.IsSlowAt(now) {
			b.WriteString(" slow")
		}
	case syntax.PrefixEnd:
		b.WriteByte(' ')
		b.WriteString(outcomeText(rec))
		if d := rec.Duration(); d > 0 {
			b.WriteString(" in ")
			b.WriteString(formatDuration(d))
		}
		if rec.IsSlow() {
			b.WriteString(" slow")
		}
	}

	if prefix != syntax.PrefixBegin {
		writeGauges(&b, rec, cfg.ShowMemory, cfg.ShowLoad, cfg.ShowGoroutines)
	}
	if prefix != syntax.PrefixProgress && rec.Context.Len() > 0 {
		b.WriteByte(' ')
		b.WriteString(rec.Context.String())
	}
	return b.String()
}

func identity(rec *record.Record, withCategory, withPosition bool) string {
	var b strings.Builder
	if withCategory && rec.Category != "" {
		b.WriteString(rec.Category)
	}
	if rec.OpName != "" {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(rec.OpName)
	}
	if b.Len() == 0 {
		b.WriteString("op")
	}
	if withPosition && rec.Position > 0 {
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(rec.Position, 10))
	}
	return b.String()
}

func outcomeText(rec *record.Record) string {
	verb := rec.Outcome()
	if verb == "" {
		return "done"
	}
	if path := rec.Path(); path != "" && path != verb {
		verb += " " + path
	}
	if rec.FailMessage != "" {
		verb += ": " + rec.FailMessage
	}
	return verb
}

func writeGauges(b *strings.Builder, rec *record.Record, mem, load, gor bool) {
	if mem && rec.HeapBytes > 0 {
		b.WriteString(" mem=")
		b.WriteString(formatBytes(rec.HeapBytes))
	}
	if load && rec.Load > 0 {
		fmt.Fprintf(b, " load=%.2f", rec.Load)
	}
	if gor && rec.Goroutines > 0 {
		fmt.Fprintf(b, " gor=%d", rec.Goroutines)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(10 * time.Microsecond).String()
	case d < time.Minute:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + "B"
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
