package filestore

import (
	"io"
)

// FileStore stores uploaded file content addressed by its sha256 hash.
type FileStore interface {
	// Put reads r to the end, stores the content and returns its hex
	// hash and size. Storing the same content twice is a no-op.
	Put(r io.Reader) (hash string, size int64, err error)

	// Get retrieves the file content for the given hash.
	Get(hash string) (io.ReadCloser, error)

	// Exists reports whether content with the given hash is stored.
	Exists(hash string) bool

	// Delete removes the content for the given hash if present.
	Delete(hash string) error
}
