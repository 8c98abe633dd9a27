package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectRepository is the narrow object-store surface the sync pipeline
// needs: one read, one write, one reachability probe.
type ObjectRepository interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, body []byte) error
	Ping(ctx context.Context) error
}

type S3ObjectRepository struct {
	client *s3.Client
	bucket string
}

func NewS3ObjectRepository(client *s3.Client, bucket string) *S3ObjectRepository {
	return &S3ObjectRepository{client: client, bucket: bucket}
}

var _ ObjectRepository = (*S3ObjectRepository)(nil)

func (r *S3ObjectRepository) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", r.bucket, key, err)
	}
	return data, nil
}

// PutObject overwrites the key unconditionally; callers rely on last write
// wins for idempotent re-syncs.
func (r *S3ObjectRepository) PutObject(ctx context.Context, key string, body []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", r.bucket, key, err)
	}
	return nil
}

func (r *S3ObjectRepository) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", r.bucket, err)
	}
	return nil
}
