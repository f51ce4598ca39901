// Package blob abstracts storage of raw file bytes. Implementations keep
// one flat namespace per owner; the coordinator layers metadata and
// consistency on top.
package blob

import "context"

// Store reads and writes a user's file bytes. Write returns the storage
// path the metadata layer must remember; all other calls take that path
// back. Remove is idempotent: removing an absent blob is not an error.
type Store interface {
	Write(ctx context.Context, owner, filename string, data []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Move(ctx context.Context, oldPath, newPath string) error
	Remove(ctx context.Context, path string) error

	// SiblingPath returns the path a blob at path would have after taking
	// the given filename, staying in the same owner namespace.
	SiblingPath(path, filename string) string
}
