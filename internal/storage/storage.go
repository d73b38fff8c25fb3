package storage

import (
	"context"
	"io"
)

// Service stores uploaded image blobs and deletes replaced ones. Put returns
// the storage path that gets persisted on the post and handed back to clients;
// Remove accepts exactly those paths.
type Service interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}
