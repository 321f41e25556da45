package minio

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// PhotoStore uploads item photos and returns their public URLs.  It
// implements the item service's BlobStore contract.
type PhotoStore struct {
	client *Client
	logger logging.Logger
}

// NewPhotoStore builds the photo store over an established client.
func NewPhotoStore(client *Client, log logging.Logger) *PhotoStore {
	return &PhotoStore{client: client, logger: log}
}

// Upload stores the object and returns its public URL.
func (s *PhotoStore) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	if name == "" {
		return "", errors.InvalidParam("object name is required")
	}
	if size <= 0 {
		return "", errors.InvalidParam("object size must be positive")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.api.PutObject(ctx, s.client.config.Bucket, name, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload object")
	}

	url := strings.TrimSuffix(s.client.config.PublicBaseURL, "/") + "/" + name
	s.logger.Debug("Photo uploaded",
		logging.String("object", name),
		logging.Int64("size", size))
	return url, nil
}

// Remove deletes a stored object.
func (s *PhotoStore) Remove(ctx context.Context, name string) error {
	err := s.client.api.RemoveObject(ctx, s.client.config.Bucket, name,
		minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to remove object")
	}
	return nil
}

// Exists reports whether the object is present.
func (s *PhotoStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.config.Bucket, name,
		minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat object")
	}
	return true, nil
}
