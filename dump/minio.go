package dump

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// MinioSink stores snapshots in MinIO or any S3-compatible object
// store reachable through the minio client.
type MinioSink struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioSink creates a MinIO sink on an existing client.
// rootPrefix is prepended to all keys (e.g. "snapshots/").
func NewMinioSink(client *minio.Client, bucket, rootPrefix string) *MinioSink {
	return &MinioSink{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *MinioSink) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put implements Sink. The object size is unknown up front, so the
// client streams with multipart upload.
func (s *MinioSink) Put(ctx context.Context, name string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), r, -1, minio.PutObjectOptions{})
	return err
}
