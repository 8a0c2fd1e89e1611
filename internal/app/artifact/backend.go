package artifact

import (
	"context"
	"io"
	"time"
)

// Object is stored content found by List.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Backend holds artifact bytes under a key.
type Backend interface {
	// Save takes ownership of localPath: on success the local file is gone
	// and its content is stored under key.
	Save(ctx context.Context, key, localPath string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Object, error)
	Name() string
}
