package services

import (
	"context"
	"time"
)

// ObjectStorage stores uploaded files by key.
type ObjectStorage interface {
	// Upload writes data under key, replacing any existing object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download reads the object at key.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// SignedURL returns a time-limited download URL for key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
