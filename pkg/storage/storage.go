// Package storage keeps generated blobs, such as synthesized speech, under
// flat names in a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidName is returned for names that could escape the store root.
var ErrInvalidName = errors.New("storage: invalid name")

// Store holds blobs by name. Implementations must be safe for concurrent
// use.
type Store interface {
	// Put writes data under name, replacing any existing blob.
	Put(ctx context.Context, name string, data []byte, contentType string) error

	// Open returns the named blob. A missing blob yields an error wrapping
	// fs.ErrNotExist. The caller must close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes the named blob. Missing blobs are not an error.
	Delete(ctx context.Context, name string) error
}

// CheckName rejects empty names, path separators and dot segments.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
