// Package lock provides an exclusive lock on a language pair's working
// directory, held through a lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daxida/kty/internal/domain"
)

// FileName is the name of the lock file inside the locked directory.
const FileName = ".kty.lock"

const pollInterval = 100 * time.Millisecond

// Lock is a held directory lock.
type Lock struct {
	path  string
	owner uuid.UUID
}

// Acquire takes the lock on dir, waiting up to timeout for a concurrent
// holder to release it. A zero timeout tries once. A lock left by a process
// that no longer runs on this host is removed and taken over.
func Acquire(ctx context.Context, dir string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.IOError{Path: dir, Err: err}
	}
	l := &Lock{path: filepath.Join(dir, FileName), owner: uuid.New()}

	deadline := time.Now().Add(timeout)
	for {
		err := l.tryCreate()
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, &domain.IOError{Path: l.path, Err: err}
		}
		stale, err := removeStale(l.path)
		if err != nil {
			return nil, &domain.IOError{Path: l.path, Err: err}
		}
		if stale {
			continue
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s held by %s", domain.ErrLocked, dir, holder(l.path))
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrLocked, dir, ctx.Err())
		case <-time.After(min(pollInterval, time.Until(deadline))):
		}
	}
}

func (l *Lock) tryCreate() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%s %d\n", l.owner, os.Getpid())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(l.path)
	}
	return err
}

// Owner identifies this holder. It also scopes per-run storage.
func (l *Lock) Owner() uuid.UUID { return l.owner }

// Release removes the lock file if this Lock still owns it. Releasing twice
// is harmless.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &domain.IOError{Path: l.path, Err: err}
	}
	if !strings.HasPrefix(string(data), l.owner.String()) {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.IOError{Path: l.path, Err: err}
	}
	return nil
}

func holder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(data))
}

// removeStale deletes the lock file at path when its holder process is
// gone. The file is first moved aside so a lock taken concurrently by a
// live process is put back instead of deleted.
func removeStale(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	pid, ok := holderPID(data)
	if !ok || processAlive(pid) {
		return false, nil
	}

	aside := path + ".stale-" + uuid.NewString()
	if err := os.Rename(path, aside); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	moved, err := os.ReadFile(aside)
	if err == nil && string(moved) != string(data) {
		// Someone else cleared the stale lock and took it meanwhile.
		if err := os.Link(aside, path); err != nil && !errors.Is(err, os.ErrExist) {
			return false, err
		}
	}
	os.Remove(aside)
	return true, nil
}

// holderPID parses the "<owner> <pid>" lock file contents.
func holderPID(data []byte) (int, bool) {
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return 0, false
	}
	pid, err := strconv.Atoi(fields[1])
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
