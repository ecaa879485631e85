package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/daxida/kty/internal/domain"
)

// ResolveInputs expands glob patterns into a sorted, deduplicated list of
// files. Patterns without meta characters must name an existing file.
func ResolveInputs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, domain.NewConfigError("input", fmt.Sprintf("bad pattern %q: %v", pattern, err))
		}
		if len(matches) == 0 {
			return nil, &domain.IOError{Path: pattern, Err: os.ErrNotExist}
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// Open concatenates the files at paths into one reader. A newline is
// inserted between files so a missing trailing newline cannot join two
// records. Line numbers reported by a Stream count across all inputs.
func Open(paths []string) (io.ReadCloser, error) {
	files := make([]*os.File, 0, len(paths))
	readers := make([]io.Reader, 0, 2*len(paths))
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(files)
			return nil, &domain.IOError{Path: p, Err: err}
		}
		files = append(files, f)
		if i > 0 {
			readers = append(readers, strings.NewReader("\n"))
		}
		readers = append(readers, f)
	}
	return &multiFile{Reader: io.MultiReader(readers...), files: files}, nil
}

type multiFile struct {
	io.Reader
	files []*os.File
}

func (m *multiFile) Close() error { return closeAll(m.files) }

func closeAll(files []*os.File) error {
	var errs []error
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}
