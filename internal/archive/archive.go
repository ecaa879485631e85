// Package archive writes dictionary documents to a zip container or a
// directory. Output is byte-reproducible and written atomically.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/daxida/kty/internal/domain"
)

// Entry is one named document.
type Entry struct {
	Name string
	Data []byte
}

// epoch is the modification time stamped on every zip entry.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// WriteZip writes entries, in the given order, to a zip file at path. The
// archive is assembled in a temporary file next to path and renamed into
// place, so path holds either the previous content or the complete new
// archive.
func WriteZip(path string, entries []Entry) error {
	return writeAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, flate.BestCompression)
		})
		for _, e := range entries {
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     e.Name,
				Method:   zip.Deflate,
				Modified: epoch,
			})
			if err != nil {
				return fmt.Errorf("zip %s: %w", e.Name, err)
			}
			if _, err := fw.Write(e.Data); err != nil {
				return fmt.Errorf("zip %s: %w", e.Name, err)
			}
		}
		return zw.Close()
	})
}

// WriteDir writes each entry as a file under dir. Each file is replaced
// atomically but the set is not: a failure partway leaves a mix of old and
// new files. It only backs the debugging copy kept with save_temps.
func WriteDir(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.IOError{Path: dir, Err: err}
	}
	for _, e := range entries {
		data := e.Data
		if err := writeAtomic(filepath.Join(dir, e.Name), func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

// ReadZip returns every entry of the zip file at path, in archive order.
func ReadZip(path string) ([]Entry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Err: err}
	}
	defer zr.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &domain.IOError{Path: path + ":" + f.Name, Err: err}
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, &domain.IOError{Path: path + ":" + f.Name, Err: err}
		}
		entries = append(entries, Entry{Name: f.Name, Data: buf.Bytes()})
	}
	return entries, nil
}

// writeAtomic streams fill into a temporary file in the target directory
// and renames it over path once fill and the file sync succeed.
func writeAtomic(path string, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.IOError{Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &domain.IOError{Path: path, Err: err}
	}
	return nil
}
