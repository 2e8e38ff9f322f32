package storage

import (
	"context"
	"fmt"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"io"
	"milk2meat/internal/config"
	"net/url"
	"path"
	"time"
)

// MinioStorage keeps attachments in an S3 compatible bucket (MinIO, Cloudflare R2, AWS S3).
type MinioStorage struct {
	client   *minio.Client
	bucket   string
	location string
	expire   time.Duration
}

var _ FileStorage = &MinioStorage{}

// NewMinioStorage creates the client and makes sure the bucket exists.
func NewMinioStorage(ctx context.Context, c *config.Configuration) (*MinioStorage, error) {
	client, err := newMinioClient(c)
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, c.Storage.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, c.Storage.Bucket, minio.MakeBucketOptions{Region: c.Storage.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return newMinioStorage(client, c), nil
}

func newMinioClient(c *config.Configuration) (*minio.Client, error) {
	client, err := minio.New(c.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Storage.AccessKey, c.Storage.SecretKey, ""),
		Secure: c.Storage.UseSSL,
		Region: c.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

func newMinioStorage(client *minio.Client, c *config.Configuration) *MinioStorage {
	return &MinioStorage{
		client:   client,
		bucket:   c.Storage.Bucket,
		location: c.Storage.Location,
		expire:   c.Storage.SignedUrlExpire.Duration,
	}
}

func (s *MinioStorage) objectName(key string) string {
	return path.Join(s.location, key)
}

func (s *MinioStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		s.objectName(key),
		r,
		size,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.objectName(key), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PresignedURL signs a GET for key that the browser displays inline.
func (s *MinioStorage) PresignedURL(ctx context.Context, key string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "inline")

	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.objectName(key), s.expire, params)
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return u.String(), nil
}
