package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs on the local filesystem, one subdirectory per owner
// under root. Moves stay within root, so os.Rename is atomic on a single
// volume.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns the store.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

// checkName rejects names that could escape the per-owner directory.
// Callers validate filenames at the boundary already; this is the layer
// that must never build an escaping path regardless.
func checkName(name string) error {
	if name == "" ||
		name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

func (l *Local) Write(ctx context.Context, owner, filename string, data []byte) (string, error) {
	if err := checkName(owner); err != nil {
		return "", err
	}
	if err := checkName(filename); err != nil {
		return "", err
	}

	dir := filepath.Join(l.root, owner)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir owner dir: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path, nil
}

func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (l *Local) Move(ctx context.Context, oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("move blob: %w", err)
	}
	return nil
}

func (l *Local) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (l *Local) SiblingPath(path, filename string) string {
	return filepath.Join(filepath.Dir(path), filename)
}
