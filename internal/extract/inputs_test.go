package extract

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

func TestResolveInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.jsonl", "a.jsonl", "nested/c.jsonl", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	}

	got, err := ResolveInputs([]string{
		filepath.Join(dir, "**", "*.jsonl"),
		filepath.Join(dir, "a.jsonl"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jsonl"),
		filepath.Join(dir, "b.jsonl"),
		filepath.Join(dir, "nested", "c.jsonl"),
	}, got)
}

func TestResolveInputs_NoMatch(t *testing.T) {
	t.Parallel()

	_, err := ResolveInputs([]string{filepath.Join(t.TempDir(), "*.jsonl")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestOpen_JoinsFilesOnNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.jsonl")
	b := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(a, []byte(`{"word":"a"}`), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`{"word":"b"}`+"\n"), 0o644))

	rc, err := Open([]string{a, b})
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "{\"word\":\"a\"}\n{\"word\":\"b\"}\n", string(data))
}
