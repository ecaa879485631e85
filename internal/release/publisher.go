// Package release uploads built dictionaries to S3-compatible storage.
package release

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/domain"
)

// ObjectStore is the subset of the minio client the publisher uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads archives under <prefix>/<source>/<target>/<file>.
type Publisher struct {
	log    *slog.Logger
	store  ObjectStore
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error
}

// New connects to the configured endpoint. The bucket is created lazily on
// the first upload.
func New(log *slog.Logger, cfg config.ReleaseConfig) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, domain.NewConfigError("release", "endpoint and bucket are required")
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("release: init client: %w", err)
	}
	return NewWithStore(log, client, cfg), nil
}

// NewWithStore builds a Publisher over an existing client.
func NewWithStore(log *slog.Logger, store ObjectStore, cfg config.ReleaseConfig) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		log:    log.With("service", "release"),
		store:  store,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.initOnce.Do(func() {
		exists, err := p.store.BucketExists(ctx, p.bucket)
		if err != nil {
			p.initErr = err
			return
		}
		if exists {
			return
		}
		p.initErr = p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region})
	})
	return p.initErr
}

// ObjectKey is where the archive at file is stored for pair.
func (p *Publisher) ObjectKey(pair config.Pair, file string) string {
	return path.Join(p.prefix, pair.Source, pair.Target, filepath.Base(file))
}

// Publish uploads the archive at file and returns its object key.
func (p *Publisher) Publish(ctx context.Context, pair config.Pair, file string) (string, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("release: ensure bucket %s: %w", p.bucket, err)
	}

	key := p.ObjectKey(pair, file)
	info, err := p.store.FPutObject(ctx, p.bucket, key, file, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", &domain.IOError{Path: file, Err: fmt.Errorf("upload to %s/%s: %w", p.bucket, key, err)}
	}

	p.log.InfoContext(ctx, "published",
		slog.String("pair", pair.String()),
		slog.String("bucket", p.bucket),
		slog.String("key", key),
		slog.Int64("size", info.Size),
	)
	return key, nil
}
