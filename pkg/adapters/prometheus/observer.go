// Package prometheus exports operation lifecycle counts and durations as
// Prometheus metrics. It translates observer callbacks into a fixed set
// of vectors on a dedicated registry; outcome paths are short stable
// tokens, so using them as label values keeps cardinality bounded.
package prometheus

import (
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opline/opline/pkg/ports"
	"github.com/opline/opline/pkg/record"
)

const namespace = "opline"

// Observer implements ports.Observer on Prometheus primitives.
type Observer struct {
	registry *promclient.Registry
	started  *promclient.CounterVec
	progress *promclient.CounterVec
	finished *promclient.CounterVec
	duration *promclient.HistogramVec
	active   *promclient.GaugeVec
	slow     *promclient.CounterVec
}

// NewObserver builds an observer backed by a dedicated registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: promclient.NewRegistry(),
		started: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "ops_started_total",
			Help:      "Operations started.",
		}, []string{"category", "op"}),
		progress: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "ops_progress_total",
			Help:      "Progress events emitted after rate limiting.",
		}, []string{"category", "op"}),
		finished: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "ops_finished_total",
			Help:      "Operations finished, by outcome and path.",
		}, []string{"category", "op", "outcome", "path"}),
		duration: promclient.NewHistogramVec(promclient.HistogramOpts{
			Namespace: namespace,
			Name:      "op_duration_seconds",
			Help:      "Operation duration from start to terminal call.",
			Buckets:   promclient.DefBuckets,
		}, []string{"category", "op", "outcome"}),
		active: promclient.NewGaugeVec(promclient.GaugeOpts{
			Namespace: namespace,
			Name:      "ops_active",
			Help:      "Operations started but not finished.",
		}, []string{"category"}),
		slow: promclient.NewCounterVec(promclient.CounterOpts{
			Namespace: namespace,
			Name:      "ops_slow_total",
			Help:      "Operations that exceeded their time limit.",
		}, []string{"category", "op"}),
	}
	o.registry.MustRegister(o.started, o.progress, o.finished, o.duration, o.active, o.slow)
	return o
}

// Registry returns the underlying registry.
func (o *Observer) Registry() *promclient.Registry {
	return o.registry
}

// Handler exposes the registry via an http.Handler for scraping.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observer) OpStarted(r *record.Record) {
	o.started.WithLabelValues(r.Category, r.OpName).Inc()
	o.active.WithLabelValues(r.Category).Inc()
}

func (o *Observer) OpProgressed(r *record.Record) {
	o.progress.WithLabelValues(r.Category, r.OpName).Inc()
}

func (o *Observer) OpFinished(r *record.Record) {
	// Terminal-before-start records never incremented the gauge.
	if r.IsStarted() {
		o.active.WithLabelValues(r.Category).Dec()
	}
	o.finished.WithLabelValues(r.Category, r.OpName, r.Outcome(), r.Path()).Inc()
	o.duration.WithLabelValues(r.Category, r.OpName, r.Outcome()).Observe(r.Duration().Seconds())
	if r.IsSlow() {
		o.slow.WithLabelValues(r.Category, r.OpName).Inc()
	}
}

var _ ports.Observer = (*Observer)(nil)
