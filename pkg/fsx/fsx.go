// Package fsx abstracts where upload content comes from. The gql
// package builds uploads from any FileReader, so request code works the
// same against local disk, an in-memory fixture, or a remote store.
package fsx

import (
	"context"
	"io"
	"time"
)

// FileInfo describes a file available to read.
type FileInfo struct {
	Name        string            // Base name of the file
	Size        int64             // File size in bytes
	ModTime     time.Time         // Modification time
	IsDir       bool              // Is a directory
	ContentType string            // MIME type (when available)
	Metadata    map[string]string // Additional metadata
}

// FileReader provides read-only access to a file tree.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// PathOperations provides path manipulation for a reader's path scheme.
type PathOperations interface {
	Join(elem ...string) string
}

// PathReader combines read and path operations.
type PathReader interface {
	FileReader
	PathOperations
}
