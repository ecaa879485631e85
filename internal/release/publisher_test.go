package release

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/domain"
)

type fakeStore struct {
	exists  bool
	made    int
	checks  int
	puts    map[string]string
	putErr  error
	checkFn func() error
}

func (f *fakeStore) BucketExists(context.Context, string) (bool, error) {
	f.checks++
	if f.checkFn != nil {
		return false, f.checkFn()
	}
	return f.exists, nil
}

func (f *fakeStore) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.made++
	f.exists = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, _, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[object] = filePath
	st, err := os.Stat(filePath)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	return minio.UploadInfo{Key: object, Size: st.Size()}, nil
}

func newPublisher(store ObjectStore) *Publisher {
	return NewWithStore(slog.New(slog.NewTextHandler(io.Discard, nil)), store, config.ReleaseConfig{
		Bucket: "dicts",
		Prefix: "/dictionaries/",
	})
}

func archiveFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kty-de-en.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o644))
	return path
}

func TestPublish(t *testing.T) {
	store := &fakeStore{}
	p := newPublisher(store)
	file := archiveFile(t)
	pair := config.Pair{Source: "de", Target: "en"}

	key, err := p.Publish(context.Background(), pair, file)
	require.NoError(t, err)
	assert.Equal(t, "dictionaries/de/en/kty-de-en.zip", key)
	assert.Equal(t, file, store.puts[key])
	assert.Equal(t, 1, store.made)

	_, err = p.Publish(context.Background(), pair, file)
	require.NoError(t, err)
	assert.Equal(t, 1, store.checks, "bucket is checked once")
}

func TestPublish_BucketError(t *testing.T) {
	store := &fakeStore{checkFn: func() error { return errors.New("denied") }}
	_, err := newPublisher(store).Publish(context.Background(), config.Pair{Source: "de", Target: "en"}, archiveFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestPublish_UploadError(t *testing.T) {
	store := &fakeStore{exists: true, putErr: errors.New("timeout")}
	_, err := newPublisher(store).Publish(context.Background(), config.Pair{Source: "de", Target: "en"}, archiveFile(t))
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.Equal(t, 0, store.made)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, config.ReleaseConfig{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
