package storage

import (
	"context"
	"io"
	"time"
)

// ReceiptRepository defines the interface for receipt image storage. Object
// paths are namespaced by user and transaction so access checks stay simple.
type ReceiptRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
