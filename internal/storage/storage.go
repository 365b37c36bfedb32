package storage

import (
	"context"
	"io"
)

// Store persists photo bytes under storage-relative keys of the form
// photos/<user_id>/<album_id>/<file>. Authorization happens before any
// Store call; implementations only move bytes.
type Store interface {
	// Save writes the object and returns the number of bytes stored.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open streams the object back. Missing objects return an error that
	// wraps models.ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes one object. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error

	// RemoveAll deletes every object under the given key prefix.
	RemoveAll(ctx context.Context, prefix string) error
}
