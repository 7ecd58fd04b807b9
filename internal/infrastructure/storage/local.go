package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var _ Storage = (*Local)(nil)

// Local stores files on disk under Root; the HTTP layer serves Root at PublicURL.
type Local struct {
	Root      string
	PublicURL string
}

func NewLocal(root, publicURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %q: %w", root, err)
	}
	return &Local{Root: root, PublicURL: publicURL}, nil
}

func (l *Local) Put(ctx context.Context, dir, name, _ string, r io.Reader) (string, error) {
	p, err := objectPath(dir, name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(l.Root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return p, nil
}

func (l *Local) URL(p string) string {
	return joinURL(l.PublicURL, p)
}

func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(filepath.Join(l.Root, filepath.FromSlash(p)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping checks that Root is still a directory.
func (l *Local) Ping(context.Context) error {
	fi, err := os.Stat(l.Root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("storage root %q is not a directory", l.Root)
	}
	return nil
}
