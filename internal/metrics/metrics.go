// Package metrics collects per-run counters and exports them in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/extract"
	"github.com/daxida/kty/internal/normalize"
)

const namespace = "kty"

// Metrics holds the collectors of one process. A nil *Metrics records
// nothing.
type Metrics struct {
	reg         *prometheus.Registry
	records     *prometheus.CounterVec
	entries     *prometheus.CounterVec
	rows        *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	stage       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Extract lines by filter outcome.",
		}, []string{"pair", "result"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Canonical entries by normalization outcome.",
		}, []string{"pair", "result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows written per dictionary table.",
		}, []string{"pair", "table"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Non-fatal diagnostics by kind.",
		}, []string{"pair", "kind"}),
		stage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"pair", "stage"}),
	}
	m.reg.MustRegister(m.records, m.entries, m.rows, m.diagnostics, m.stage)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveFilter(pair string, s extract.Stats) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(pair, "retained").Add(float64(s.Retained))
	m.records.WithLabelValues(pair, "rejected").Add(float64(s.Rejected))
	m.records.WithLabelValues(pair, "malformed").Add(float64(s.Malformed))
}

func (m *Metrics) ObserveNormalize(pair string, s normalize.Stats) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(pair, "finalized").Add(float64(s.Entries))
	m.entries.WithLabelValues(pair, "dropped").Add(float64(s.Dropped))
	m.entries.WithLabelValues(pair, "conflict").Add(float64(s.Conflicts))
}

func (m *Metrics) ObserveSerialize(pair string, terms, tags int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(pair, "term").Add(float64(terms))
	m.rows.WithLabelValues(pair, "tag").Add(float64(tags))
}

func (m *Metrics) ObserveDiagnostics(pair string, d *domain.Diagnostics) {
	if m == nil {
		return
	}
	for kind, n := range d.Counts() {
		m.diagnostics.WithLabelValues(pair, string(kind)).Add(float64(n))
	}
}

func (m *Metrics) ObserveStage(pair, stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stage.WithLabelValues(pair, stage).Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric to path. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	return nil
}
