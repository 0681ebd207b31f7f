package services

import (
	"context"
	"io"
)

// ObjectStore is the blob storage dependency of the image pipeline. Upload
// returns a durable URL for the stored object; Delete failures are treated
// as best-effort by callers (metadata consistency wins over orphaned blobs).
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
