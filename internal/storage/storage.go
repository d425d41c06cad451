// Package storage provides temporary and persistent file storage capabilities.
// It defines the TempStore and ObjectStore interfaces (ports) and
// implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// TempStore defines the interface for request-scoped temporary files.
// Implementations own the working directory and guarantee collision-free
// naming; deletion of a request's input is the caller's responsibility and
// happens exactly once per request.
type TempStore interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is the original uploaded filename; it is sanitized
	// before it becomes part of any path.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified files.
	// It continues cleanup even if some files fail to delete, and treats
	// already-absent files as success.
	CleanupTemp(ctx context.Context, paths []string) error
}

// Uploader is the narrow object-store surface the generation service needs
// for upload=true requests.
type Uploader interface {
	// Upload stores data under key and returns the object URL.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}

// ObjectStore defines the full object-store surface used by blobctl.
type ObjectStore interface {
	Uploader

	// Download fetches a single object into destPath, creating parent
	// directories as needed, and returns the local path written.
	Download(ctx context.Context, key, destPath string) (string, error)

	// List returns the keys of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
