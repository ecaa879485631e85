package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func TestAcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dict", "de", "en", "temp")

	l, err := Acquire(context.Background(), dir, 0)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, FileName))

	_, err = Acquire(context.Background(), dir, 0)
	assert.True(t, errors.Is(err, domain.ErrLocked))

	require.NoError(t, l.Release())
	require.NoError(t, l.Release())
	_, err = os.Stat(filepath.Join(dir, FileName))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	again, err := Acquire(context.Background(), dir, 0)
	require.NoError(t, err)
	assert.NotEqual(t, l.Owner(), again.Owner())
	require.NoError(t, again.Release())
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	dir := t.TempDir()
	first, err := Acquire(context.Background(), dir, 0)
	require.NoError(t, err)

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = first.Release()
	}()

	second, err := Acquire(context.Background(), dir, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquire_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	held, err := Acquire(context.Background(), dir, 0)
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Acquire(ctx, dir, time.Minute)
	assert.True(t, errors.Is(err, domain.ErrLocked))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRelease_ForeignLockUntouched(t *testing.T) {
	dir := t.TempDir()
	l, err := Acquire(context.Background(), dir, 0)
	require.NoError(t, err)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("someone-else 1\n"), 0o644))
	require.NoError(t, l.Release())
	assert.FileExists(t, path)
}

// deadPID returns the pid of a child process that has already exited.
func deadPID(t *testing.T) int {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stale lock detection needs signal 0")
	}
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestAcquire_StaleLock(t *testing.T) {
	tests := []struct {
		name     string
		contents func(t *testing.T) string
		wantErr  bool
	}{
		{
			name:     "holder exited",
			contents: func(t *testing.T) string { return fmt.Sprintf("00000000-0000-0000-0000-000000000000 %d\n", deadPID(t)) },
		},
		{
			name:     "holder running",
			contents: func(*testing.T) string { return fmt.Sprintf("00000000-0000-0000-0000-000000000000 %d\n", os.Getpid()) },
			wantErr:  true,
		},
		{
			name:     "unreadable holder",
			contents: func(*testing.T) string { return "garbage\n" },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.contents(t)), 0o644))

			l, err := Acquire(context.Background(), dir, 300*time.Millisecond)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrLocked))
				assert.FileExists(t, path)
				return
			}
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), l.Owner().String())
			require.NoError(t, l.Release())

			leftovers, err := filepath.Glob(filepath.Join(dir, FileName+".stale-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
