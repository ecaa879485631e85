package extract

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/daxida/kty/internal/domain"
)

const (
	// Unbounded disables the record cap.
	Unbounded = -1

	// maxLineSize is the buffer size for bufio.Scanner (16 MB).
	maxLineSize = 16 << 20

	DefaultTolerance = 0.05
	DefaultMinSample = 100

	// smallSampleLimit is the ratio applied to inputs shorter than MinSample.
	smallSampleLimit = 0.5
)

// Options configures a Stream.
type Options struct {
	// Lang, when set, rejects records of any other source language before
	// the predicates are consulted.
	Lang string

	Include []Predicate
	Exclude []Predicate

	// Cap is the number of successfully decoded records the filter evaluates
	// before stopping. Unbounded (or any negative value) means no cap.
	Cap int

	// Tolerance is the highest malformed/total line ratio accepted. The
	// check applies once MinSample non-blank lines have been read; shorter
	// inputs fail at end of input only when mostly malformed. A tolerance
	// of 1 disables the check.
	Tolerance float64
	MinSample int
}

// NoFilter reads every record with no cap and tolerance checks disabled.
func NoFilter() Options {
	return Options{Cap: Unbounded, Tolerance: 1}
}

// Retains reports whether r passes the inclusion and exclusion predicates.
// The cap is tracked by Stream.
func (o Options) Retains(r *domain.RawRecord) bool {
	if o.Lang != "" && r.LangCode != o.Lang {
		return false
	}
	if len(o.Include) > 0 && !anyMatch(o.Include, r) {
		return false
	}
	return !anyMatch(o.Exclude, r)
}

// Stats are line and record counters of a Stream.
type Stats struct {
	Lines     int
	Blank     int
	Malformed int
	Evaluated int
	Retained  int
	Rejected  int
}

// MalformedRatio is malformed lines over non-blank lines.
func (s Stats) MalformedRatio() float64 {
	total := s.Lines - s.Blank
	if total == 0 {
		return 0
	}
	return float64(s.Malformed) / float64(total)
}

// Stream lazily reads JSONL records and yields the retained ones. It is
// single-pass; reading again requires a new reader.
//
//	s := extract.NewStream(r, opts, diag)
//	for s.Next() {
//		rec := s.Record()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	scanner *bufio.Scanner
	opts    Options
	diag    *domain.Diagnostics
	stats   Stats
	rec     *domain.RawRecord
	line    []byte
	err     error
	done    bool
}

// NewStream creates a Stream over r. Malformed lines are reported to diag.
func NewStream(r io.Reader, opts Options, diag *domain.Diagnostics) *Stream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Stream{scanner: scanner, opts: opts, diag: diag}
}

// Next advances to the next retained record.
func (s *Stream) Next() bool {
	s.rec = nil
	if s.done {
		return false
	}

	for {
		if s.capReached() {
			return s.finish(nil)
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return s.finish(&domain.IOError{Path: "input", Err: fmt.Errorf("line %d: %w", s.stats.Lines+1, err)})
			}
			return s.finish(s.checkTolerance(true))
		}

		s.stats.Lines++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			s.stats.Blank++
			continue
		}

		var rec domain.RawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.stats.Malformed++
			recErr := &domain.RecordError{Line: s.stats.Lines, Err: err}
			s.diag.Add(domain.DiagMalformedRecord, "line "+strconv.Itoa(s.stats.Lines), recErr.Error())
			if err := s.checkTolerance(false); err != nil {
				return s.finish(err)
			}
			continue
		}

		s.stats.Evaluated++
		if !s.opts.Retains(&rec) {
			s.stats.Rejected++
			continue
		}
		s.stats.Retained++
		s.rec = &rec
		s.line = append(s.line[:0], line...)
		return true
	}
}

// Record returns the record produced by the last successful Next.
func (s *Stream) Record() *domain.RawRecord { return s.rec }

// Line returns the raw JSON of the current record, trimmed. The slice is
// reused by the next call to Next.
func (s *Stream) Line() []byte { return s.line }

// Err returns the error that stopped the stream, if any.
func (s *Stream) Err() error { return s.err }

func (s *Stream) Stats() Stats { return s.stats }

func (s *Stream) capReached() bool {
	return s.opts.Cap >= 0 && s.stats.Evaluated >= s.opts.Cap
}

// checkTolerance fails once the malformed ratio exceeds the tolerance over
// at least MinSample lines. At end of input a smaller file is still
// rejected when malformed lines outnumber decoded ones.
func (s *Stream) checkTolerance(final bool) error {
	total := s.stats.Lines - s.stats.Blank
	if total == 0 || s.opts.Tolerance >= 1 {
		return nil
	}
	limit := s.opts.Tolerance
	if total < s.opts.MinSample {
		if !final {
			return nil
		}
		limit = max(limit, smallSampleLimit)
	}
	if ratio := s.stats.MalformedRatio(); ratio > limit {
		return fmt.Errorf("%w: %d of %d lines malformed (%.2f%% > %.2f%% tolerance)",
			domain.ErrCorruptSource, s.stats.Malformed, total, ratio*100, limit*100)
	}
	return nil
}

func (s *Stream) finish(err error) bool {
	s.done = true
	s.err = err
	return false
}
