// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts requests, retries, parsed papers and runs on a
// private Prometheus registry and exports them in the node_exporter
// textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "get_papers_list"

// Recorder holds the pipeline metrics. A nil *Recorder records nothing,
// so callers can pass one around unconditionally.
type Recorder struct {
	registry *prometheus.Registry

	// RequestsTotal counts request attempts by endpoint and outcome
	// ("ok", an HTTP status code, or "error").
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes attempt latency by endpoint.
	RequestDuration *prometheus.HistogramVec

	// RetriesTotal counts retry waits by endpoint.
	RetriesTotal *prometheus.CounterVec

	// PapersParsed counts papers seen in detail responses.
	PapersParsed prometheus.Counter

	// RecordsEmitted counts papers kept because of a commercial author.
	RecordsEmitted prometheus.Counter

	// EntriesSkipped counts entries dropped for missing identifiers or
	// unreadable structure.
	EntriesSkipped prometheus.Counter

	// RunsTotal counts pipeline runs by status ("success" or "failure").
	RunsTotal *prometheus.CounterVec

	// IDsDiscovered counts identifiers returned by discovery.
	IDsDiscovered prometheus.Counter

	// RunDuration observes end-to-end run time.
	RunDuration prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "E-utilities request attempts by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "E-utilities request attempt duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		RetriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries after a transient failure, by endpoint",
		}, []string{"endpoint"}),
		PapersParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_parsed_total",
			Help:      "Papers read from detail responses",
		}),
		RecordsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Papers with at least one commercially affiliated author",
		}),
		EntriesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_skipped_total",
			Help:      "Detail entries skipped as unusable",
		}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by status",
		}, []string{"status"}),
		IDsDiscovered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ids_discovered_total",
			Help:      "Identifiers returned by discovery",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}

// ObserveRequest records one request attempt.
func (r *Recorder) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	r.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveRetry records one retry wait.
func (r *Recorder) ObserveRetry(endpoint string) {
	if r == nil {
		return
	}
	r.RetriesTotal.WithLabelValues(endpoint).Inc()
}

// ObserveParse records the counts from one detail response.
func (r *Recorder) ObserveParse(papers, emitted, skipped int) {
	if r == nil {
		return
	}
	r.PapersParsed.Add(float64(papers))
	r.RecordsEmitted.Add(float64(emitted))
	r.EntriesSkipped.Add(float64(skipped))
}

// ObserveRun records one finished pipeline run.
func (r *Recorder) ObserveRun(discovered, _ int, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.RunsTotal.WithLabelValues(status).Inc()
	r.IDsDiscovered.Add(float64(discovered))
	r.RunDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
