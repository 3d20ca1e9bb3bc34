package datalayer

import (
	"context"
	"fmt"
	"io"

	"github.com/glizzus/opusmux/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// RecordingSource opens stored WebM recordings by key.
type RecordingSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type RecordingNotFoundError struct {
	Bucket string
	Key    string
}

func (e *RecordingNotFoundError) Error() string {
	return fmt.Sprintf("recording %q not found in bucket %q", e.Key, e.Bucket)
}

var _ error = (*RecordingNotFoundError)(nil)

type MinioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorageFromEnv() (*MinioStorage, error) {
	cfg, err := config.NewMinioConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewMinioStorage(cfg, "")
}

// NewMinioStorage connects to the bucket named in cfg. An empty region is
// looked up from the server on first use.
func NewMinioStorage(cfg *config.MinioConfig, region string) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Username, cfg.Password, ""),
		Secure: cfg.Secure,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

var _ RecordingSource = (*MinioStorage)(nil)

// Open streams the recording stored under key. The object is checked to
// exist before Open returns.
func (s *MinioStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("unable to get recording %q: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, &RecordingNotFoundError{Bucket: s.bucket, Key: key}
		}
		return nil, fmt.Errorf("unable to stat recording %q: %w", key, err)
	}
	return obj, nil
}

// Recording is a stored recording as listed by List.
type Recording struct {
	Key  string
	Size int64
}

// List returns the recordings whose keys start with prefix.
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]Recording, error) {
	var recordings []Recording
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("unable to list recordings: %w", obj.Err)
		}
		recordings = append(recordings, Recording{Key: obj.Key, Size: obj.Size})
	}
	return recordings, nil
}
