package storage

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// FileInfo represents metadata about a tree entry
// Symlinks are described, never followed
type FileInfo struct {
	Path         string
	RelativePath string
	Size         int64
	ModTime      time.Time
	Mode         fs.FileMode
	// LinkTarget is set for symlinks
	LinkTarget string
}

// IsDir reports whether the entry is a directory
func (f *FileInfo) IsDir() bool {
	return f.Mode.IsDir()
}

// IsSymlink reports whether the entry is a symbolic link
func (f *FileInfo) IsSymlink() bool {
	return f.Mode&fs.ModeSymlink != 0
}

// IsRegular reports whether the entry is a regular file
func (f *FileInfo) IsRegular() bool {
	return f.Mode.IsRegular()
}

// Backend defines the tree operations the merge pipeline needs
type Backend interface {
	// Root returns the absolute root of the backend
	Root() string

	// List returns every entry below path, recursively, in lexical order
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content
	// If metadata is provided, permissions and timestamps are preserved
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Symlink creates (or replaces) a symbolic link at path pointing at target
	Symlink(ctx context.Context, target, path string) error

	// Exists checks if an entry exists, without following symlinks
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns entry metadata, without following symlinks
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string, perm fs.FileMode) error

	// Close releases any resources held by the backend
	Close() error
}
