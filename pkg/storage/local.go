package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores blobs as files in one directory.
type Local struct {
	root string
}

var _ Store = (*Local)(nil)

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute directory.
func (l *Local) Root() string { return l.root }

// Put writes to a temporary file and renames it into place so readers never
// see a partial blob.
func (l *Local) Put(_ context.Context, name string, data []byte, _ string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	f, err := os.CreateTemp(l.root, ".put-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(l.root, name)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Open opens the named file.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(l.root, name))
}

// Delete removes the named file.
func (l *Local) Delete(_ context.Context, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
