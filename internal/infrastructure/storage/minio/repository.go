package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

const exportPrefix = "exports/"

var (
	ErrUploadFailed   = errors.New(errors.ErrCodeStorageError, "upload failed")
	ErrPresignFailed  = errors.New(errors.ErrCodeStorageError, "failed to presign download")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ExportRepository writes export files to the configured bucket.  It
// satisfies reporting.ArtifactStore.
type ExportRepository struct {
	client *MinIOClient
	logger logging.Logger
	now    func() time.Time
}

func NewExportRepository(client *MinIOClient, log logging.Logger) *ExportRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ExportRepository{client: client, logger: log, now: time.Now}
}

// Put uploads data under key.  An empty content type is sniffed from data.
func (r *ExportRepository) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if key == "" {
		return ErrInvalidRequest.WithDetail("object key is required")
	}
	if r.client.isClosed() {
		return ErrMinIOClientClosed
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	info, err := r.client.GetClient().PutObject(ctx, r.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return ErrUploadFailed.WithCause(err).WithDetail(err.Error())
	}
	r.logger.Debug("Uploaded object",
		logging.String("bucket", r.client.Bucket()),
		logging.String("key", key),
		logging.String("etag", info.ETag),
		logging.Int64("size", info.Size))
	return nil
}

// PresignedURL returns a GET link for key that downloads under the key's base
// name, and the time the link stops working.
func (r *ExportRepository) PresignedURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrInvalidRequest.WithDetail("object key is required")
	}
	expiry := r.client.PresignExpiry()
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))

	issued := r.now()
	u, err := r.client.GetClient().PresignedGetObject(ctx, r.client.Bucket(), key, expiry, params)
	if err != nil {
		return "", time.Time{}, ErrPresignFailed.WithCause(err).WithDetail(err.Error())
	}
	return u.String(), issued.Add(expiry).UTC(), nil
}
