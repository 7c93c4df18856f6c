package repositories

import (
	"context"
	"time"
)

// StoredObject is one listing entry from the object store.
type StoredObject struct {
	Key        string
	URL        string
	Size       int64
	UploadedAt time.Time
}

// ObjectStore is the narrow contract this system needs from its artifact
// store: a flat key namespace with prefix listing. No transactional
// guarantees are assumed across keys.
type ObjectStore interface {
	// Put writes an object and returns its public URL
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get reads an object's bytes
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns up to limit objects under a key prefix
	List(ctx context.Context, prefix string, limit int) ([]StoredObject, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error
}
