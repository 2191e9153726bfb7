package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements BlobStore on a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client     *minio.Client
	bucketName string
	now        func() time.Time
}

// NewMinioStore connects to endpoint and creates bucket if it is missing.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{
		client:     client,
		bucketName: bucket,
		now:        time.Now,
	}, nil
}

// Bucket returns the bucket name.
func (s *MinioStore) Bucket() string {
	return s.bucketName
}

func (s *MinioStore) Save(ctx context.Context, name, contentType string, r io.Reader, maxSize int64) (Blob, error) {
	filename := SanitizeFilename(name)
	if filename == "" {
		return Blob{}, ErrEmptyFilename
	}

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return Blob{}, fmt.Errorf("reading upload: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return Blob{}, ErrFileTooLarge
	}

	objectName, err := uniqueObjectName(s.now(), filename, func(candidate string) (bool, error) {
		return s.exists(ctx, KeyFor(candidate))
	})
	if err != nil {
		return Blob{}, err
	}

	key := KeyFor(objectName)
	size := int64(len(data))
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"filename": name},
	})
	if err != nil {
		return Blob{}, fmt.Errorf("putting object: %w", err)
	}

	return Blob{Key: key, Size: size}, nil
}

func (s *MinioStore) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("checking object: %w", err)
}

func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return obj, nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}
