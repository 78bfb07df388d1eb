package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Storage holds published reports and their diff images.
type Storage interface {
	// Put stores data with the given key and returns the storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves data from the given storage URL
	Get(ctx context.Context, url string) ([]byte, error)
	// Delete removes the object behind the given storage URL. Deleting a
	// missing object is not an error.
	Delete(ctx context.Context, url string) error
}

type Config struct {
	Backend   string `yaml:"backend"`
	Directory string `yaml:"directory"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// New creates the backend named by config.Backend. An empty backend selects
// the file backend.
func New(ctx context.Context, config Config) (Storage, error) {
	switch config.Backend {
	case "", "file":
		return NewFileStorage(ctx, FileConfig{Directory: config.Directory})
	case "s3":
		return NewS3Storage(ctx, S3Config{Bucket: config.Bucket, Prefix: config.Prefix})
	default:
		return nil, &UnknownBackendError{Backend: config.Backend}
	}
}

type UnknownBackendError struct {
	Backend string
}

func (e *UnknownBackendError) Error() string {
	return "unknown storage backend: " + e.Backend
}
