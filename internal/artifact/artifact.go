// Package artifact persists stage outputs as JSON Lines so that any stage
// can run on its own from the previous stage's file.
package artifact

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daxida/kty/internal/domain"
)

const maxLineSize = 64 << 20

// Writer appends lines to a temporary file that becomes visible at its
// final path only on Commit.
type Writer struct {
	path string
	f    *os.File
	bw   *bufio.Writer
	enc  *json.Encoder
	n    int
	done bool
}

// Create opens a Writer for path, creating parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Writer{path: path, f: f, bw: bw, enc: enc}, nil
}

// WriteLine writes one pre-encoded JSON document.
func (w *Writer) WriteLine(line []byte) error {
	if _, err := w.bw.Write(bytes.TrimSpace(line)); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}
	w.n++
	return nil
}

// Encode writes v as one JSON line.
func (w *Writer) Encode(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return &domain.IOError{Path: w.path, Err: err}
	}
	w.n++
	return nil
}

// Count is the number of lines written so far.
func (w *Writer) Count() int { return w.n }

func (w *Writer) Path() string { return w.path }

// Commit flushes the file and renames it into place.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.bw.Flush(); err != nil {
		w.discard()
		return &domain.IOError{Path: w.path, Err: err}
	}
	if err := w.f.Sync(); err != nil {
		w.discard()
		return &domain.IOError{Path: w.path, Err: err}
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.f.Name())
		return &domain.IOError{Path: w.path, Err: err}
	}
	if err := os.Rename(w.f.Name(), w.path); err != nil {
		os.Remove(w.f.Name())
		return &domain.IOError{Path: w.path, Err: err}
	}
	return nil
}

// Abort removes the temporary file. It is a no-op after Commit, so it can
// be deferred.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.discard()
}

func (w *Writer) discard() {
	w.f.Close()
	os.Remove(w.f.Name())
}

// WriteEntries persists finalized entries, one per line, in slice order.
func WriteEntries(path string, entries []domain.CanonicalEntry) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	defer w.Abort()

	for i := range entries {
		if err := w.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return w.Commit()
}

// ReadEntries loads the entries written by WriteEntries, preserving order.
func ReadEntries(path string) ([]domain.CanonicalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var entries []domain.CanonicalEntry
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var e domain.CanonicalEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, &domain.IOError{Path: path, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	return entries, nil
}

// Open opens an artifact for reading.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	return f, nil
}
