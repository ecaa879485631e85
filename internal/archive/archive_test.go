package archive

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/domain"
)

var sampleEntries = []Entry{
	{Name: "index.json", Data: []byte(`{"title":"test"}`)},
	{Name: "tag_bank_1.json", Data: []byte(`[["n","partOfSpeech",-10,"noun",0]]`)},
	{Name: "term_bank_1.json", Data: bytes.Repeat([]byte(`["a","",""],`), 100)},
}

func TestWriteZip_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "dict.zip")
	require.NoError(t, WriteZip(path, sampleEntries))

	got, err := ReadZip(path)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries, got)
}

func TestWriteZip_Reproducible(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.zip")
	b := filepath.Join(dir, "b.zip")
	require.NoError(t, WriteZip(a, sampleEntries))
	require.NoError(t, WriteZip(b, sampleEntries))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestWriteZip_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, WriteZip(filepath.Join(dir, "dict.zip"), sampleEntries))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "dict.zip", files[0].Name())
}

func TestWriteZip_FailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dict.zip")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err := writeAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestWriteDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "temp", "dict")
	require.NoError(t, WriteDir(dir, sampleEntries))

	for _, e := range sampleEntries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name))
		require.NoError(t, err)
		assert.Equal(t, e.Data, data)
	}
}
