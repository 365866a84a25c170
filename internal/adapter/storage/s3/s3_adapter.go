package s3

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Storage stores listing photos in a MinIO/S3 bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewS3Storage connects to MinIO and ensures the bucket exists.
func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO Storage",
		zap.String("endpoint", endpoint),
		zap.String("bucket", bucketName),
		zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Error("S3Storage: failed to create MinIO client", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists == nil && exists {
			log.Info("S3Storage: bucket already exists", zap.String("bucket", bucketName))
		} else {
			log.Error("S3Storage: failed to make or verify bucket", zap.String("bucket", bucketName), zap.Error(err))
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log.Named("S3Storage"),
	}, nil
}

// Upload stores the photo under a fresh uuid key, keeping the original
// extension, and returns the serving URL.
func (s *S3Storage) Upload(ctx context.Context, originalFileName string, data []byte) (string, error) {
	ext := filepath.Ext(originalFileName)
	objectKey := fmt.Sprintf("photos/%s%s", uuid.New().String(), ext)

	s.logger.Debug("Uploading photo",
		zap.String("bucket", s.bucket),
		zap.String("object_key", objectKey),
		zap.Int("size_bytes", len(data)))

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	s.logger.Info("Photo uploaded",
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
		zap.String("url", fileURL))
	return fileURL, nil
}
