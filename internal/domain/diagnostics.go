package domain

import (
	"maps"
	"slices"
	"sync"
)

// DiagnosticKind classifies a non-fatal problem observed during a run.
type DiagnosticKind string

const (
	DiagMalformedRecord DiagnosticKind = "malformed_record"
	DiagMissingField    DiagnosticKind = "missing_field"
	DiagMergeConflict   DiagnosticKind = "merge_conflict"
	DiagSkippedEntry    DiagnosticKind = "skipped_entry"
	DiagUnknownTag      DiagnosticKind = "unknown_tag"
	DiagAdapterFailure  DiagnosticKind = "adapter_failure"
)

// Diagnostic is one recorded problem.
type Diagnostic struct {
	Kind    DiagnosticKind
	Subject string
	Message string
}

const defaultSampleLimit = 50

// Diagnostics is the per-run report of skipped and warned items. Counts are
// exact; only the first SampleLimit diagnostics of each kind are retained.
// A nil *Diagnostics discards everything.
type Diagnostics struct {
	mu          sync.Mutex
	sampleLimit int
	counts      map[DiagnosticKind]int
	samples     map[DiagnosticKind][]Diagnostic
}

// NewDiagnostics creates an empty report. A non-positive limit selects the default.
func NewDiagnostics(sampleLimit int) *Diagnostics {
	if sampleLimit <= 0 {
		sampleLimit = defaultSampleLimit
	}
	return &Diagnostics{
		sampleLimit: sampleLimit,
		counts:      make(map[DiagnosticKind]int),
		samples:     make(map[DiagnosticKind][]Diagnostic),
	}
}

func (d *Diagnostics) Add(kind DiagnosticKind, subject, message string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.counts[kind]++
	if len(d.samples[kind]) < d.sampleLimit {
		d.samples[kind] = append(d.samples[kind], Diagnostic{Kind: kind, Subject: subject, Message: message})
	}
}

func (d *Diagnostics) Count(kind DiagnosticKind) int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[kind]
}

// Total returns the number of diagnostics across all kinds.
func (d *Diagnostics) Total() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.counts {
		n += c
	}
	return n
}

// Counts returns a copy of the per-kind counters.
func (d *Diagnostics) Counts() map[DiagnosticKind]int {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.counts)
}

// Kinds returns the observed kinds in lexical order.
func (d *Diagnostics) Kinds() []DiagnosticKind {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.counts))
}

func (d *Diagnostics) Samples(kind DiagnosticKind) []Diagnostic {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.samples[kind])
}
