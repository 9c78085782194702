package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opline/opline/pkg/syntax"
)

// KeyStats aggregates the ended messages of one (category, operation) key.
// Duration columns cover records with both start and stop stamps.
type KeyStats struct {
	Category string        `json:"category"`
	Op       string        `json:"op,omitempty"`
	Count    int           `json:"count"`
	OK       int           `json:"ok"`
	Rejected int           `json:"rejected"`
	Failed   int           `json:"failed"`
	Slow     int           `json:"slow"`
	Min      time.Duration `json:"min_ns"`
	Mean     time.Duration `json:"mean_ns"`
	Max      time.Duration `json:"max_ns"`
	Total    time.Duration `json:"total_ns"`
	timed    int
}

// Stats summarizes one scan pass.
type Stats struct {
	Scanned  int        `json:"scanned"`
	Messages int        `json:"messages"`
	Broken   int        `json:"broken"`
	Begun    int        `json:"begun"`
	Progress int        `json:"progress"`
	Ended    int        `json:"ended"`
	Keys     []KeyStats `json:"keys"`
}

// Summarize folds a scan result into per-key statistics. Only ended
// messages count toward the keys; begun and progress messages feed the
// totals alone.
func Summarize(res *Result) *Stats {
	st := &Stats{
		Scanned:  res.Scanned,
		Messages: len(res.Lines),
		Broken:   len(res.Broken),
	}
	by := make(map[string]*KeyStats)
	for _, ln := range res.Lines {
		switch ln.Family {
		case syntax.PrefixBegin:
			st.Begun++
		case syntax.PrefixProgress:
			st.Progress++
		case syntax.PrefixEnd:
			st.Ended++
			r := ln.Record
			ks, ok := by[r.Key()]
			if !ok {
				ks = &KeyStats{Category: r.Category, Op: r.OpName}
				by[r.Key()] = ks
			}
			ks.Count++
			switch {
			case r.IsOK():
				ks.OK++
			case r.IsRejected():
				ks.Rejected++
			case r.IsFailed():
				ks.Failed++
			}
			if r.IsSlow() {
				ks.Slow++
			}
			if d := r.Duration(); d > 0 {
				ks.timed++
				ks.Total += d
				if ks.Min == 0 || d < ks.Min {
					ks.Min = d
				}
				if d > ks.Max {
					ks.Max = d
				}
			}
		}
	}
	st.Keys = make([]KeyStats, 0, len(by))
	for _, ks := range by {
		if ks.timed > 0 {
			ks.Mean = ks.Total / time.Duration(ks.timed)
		}
		st.Keys = append(st.Keys, *ks)
	}
	sort.Slice(st.Keys, func(i, j int) bool {
		if st.Keys[i].Category != st.Keys[j].Category {
			return st.Keys[i].Category < st.Keys[j].Category
		}
		return st.Keys[i].Op < st.Keys[j].Op
	})
	return st
}

// Markdown renders the statistics as a report with a totals line and one
// table row per key.
func (s *Stats) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Operation log report\n\n")
	fmt.Fprintf(&sb, "Scanned %d lines: %d messages (%d begun, %d progress, %d ended), %d broken.\n\n",
		s.Scanned, s.Messages, s.Begun, s.Progress, s.Ended, s.Broken)
	if len(s.Keys) == 0 {
		sb.WriteString("No finished operations.\n")
		return sb.String()
	}
	sb.WriteString("| Operation | Count | OK | Rejected | Failed | Slow | Min | Mean | Max |\n")
	sb.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, k := range s.Keys {
		name := k.Category
		if k.Op != "" {
			name += "/" + k.Op
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d | %s | %s | %s |\n",
			name, k.Count, k.OK, k.Rejected, k.Failed, k.Slow,
			fmtDur(k.Min), fmtDur(k.Mean), fmtDur(k.Max))
	}
	return sb.String()
}

func fmtDur(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d < time.Second:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
