package minio

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/config"
)

// ImageArchive keeps a copy of every uploaded property image in an object
// storage bucket. The document store stays the source of truth; the archive
// only stores bytes and hands back a URL.
type ImageArchive struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewImageArchive(cfg *config.MinIOConfig, logger *zap.Logger) (*ImageArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(ctx, cfg.Bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("MinIO bucket already exists", zap.String("bucket", cfg.Bucket))
	} else {
		logger.Info("MinIO bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &ImageArchive{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Store uploads one image payload under a fresh object key and returns the
// object URL.
func (a *ImageArchive) Store(ctx context.Context, data []byte) (string, error) {
	objectKey := fmt.Sprintf("properties/%s", uuid.NewString())

	_, err := a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		a.logger.Error("Failed to upload image to MinIO",
			zap.String("bucket", a.bucket),
			zap.String("object_key", objectKey),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, a.bucket, err)
	}

	url := fmt.Sprintf("%s/%s/%s", a.client.EndpointURL().String(), a.bucket, objectKey)
	a.logger.Debug("Image archived to MinIO",
		zap.String("object_key", objectKey),
		zap.Int("size_bytes", len(data)),
	)
	return url, nil
}
