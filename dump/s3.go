package dump

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Sink stores snapshots as S3 objects under a key prefix.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink on an existing client.
// rootPrefix is prepended to all keys (e.g. "snapshots/").
func NewS3Sink(client *s3.Client, bucket, rootPrefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// NewS3SinkFromConfig creates an S3 sink using the default AWS
// configuration chain (environment, shared config, instance role).
func NewS3SinkFromConfig(ctx context.Context, bucket, rootPrefix string) (*S3Sink, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewS3Sink(s3.NewFromConfig(cfg), bucket, rootPrefix), nil
}

func (s *S3Sink) key(name string) string {
	return path.Join(s.prefix, name)
}

// Put implements Sink. Uploads stream through the SDK's multipart
// upload manager.
func (s *S3Sink) Put(ctx context.Context, name string, r io.Reader) error {
	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   r,
	})
	return err
}
