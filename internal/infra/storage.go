package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/trazaoriente/digitalizacion-fabrica-api/internal/config"
)

// ErrObjectExists is returned by Upload when the target path is already
// occupied. Storage paths embed the version number, so a taken path means a
// concurrent writer already claimed that version — overwriting its bytes
// would corrupt the committed history.
var ErrObjectExists = errors.New("object already exists at path")

// ObjectStorage is the narrow contract the document workflow needs from the
// blob store: upload-if-absent, delete, and time-limited signed download
// URLs. The SDK error shape is resolved here, once, at the boundary —
// callers only ever see a plain error (or ErrObjectExists).
type ObjectStorage interface {
	// Upload writes the blob at path, failing with ErrObjectExists if the
	// path is already taken. It never overwrites.
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, paths ...string) error
	SignedURL(ctx context.Context, path string, expire time.Duration) (string, error)
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewObjectStorage connects to the S3-compatible store and ensures the
// bucket exists (idempotent). Returns nil when storage is disabled via
// config — callers translate a nil store into a 503 per request.
func NewObjectStorage(cfg *config.Config) (ObjectStorage, error) {
	if !cfg.StorageEnabled {
		return nil, nil
	}

	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.StorageBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("bucket create: %w", err)
		}
	}

	return &minioStorage{client: client, bucket: cfg.StorageBucket}, nil
}

func (s *minioStorage) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err == nil {
		return fmt.Errorf("%w: %s", ErrObjectExists, path)
	}
	_, err := s.client.PutObject(ctx, s.bucket, path,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *minioStorage) Remove(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		if err := s.client.RemoveObject(ctx, s.bucket, p, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func (s *minioStorage) SignedURL(ctx context.Context, path string, expire time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, expire, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
