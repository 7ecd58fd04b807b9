package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// BusinessPhotosDir is the public directory listing photos are written to.
const BusinessPhotosDir = "businesses"

var (
	ErrNotFound     = errors.New("storage: file not found")
	ErrInvalidName  = errors.New("storage: invalid file name")
	ErrUploadFailed = errors.New("storage: upload failed")
)

// Storage persists public files. Paths are slash-separated and relative to the
// storage root ("businesses/abc.jpg").
type Storage interface {
	// Put writes r as dir/name and returns the stored path.
	Put(ctx context.Context, dir, name, contentType string, r io.Reader) (string, error)
	// URL returns the public URL of a stored path.
	URL(p string) string
	// Delete removes a stored path. Missing files are not an error.
	Delete(ctx context.Context, p string) error
}

func objectPath(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return path.Join(dir, name), nil
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
