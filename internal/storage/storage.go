// Package storage is the blob-storage collaborator: given bytes it returns a
// durable path and a content hash.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore persists raw uploaded bytes.
type BlobStore interface {
	// Save writes the blob and returns its durable path, sha256 content hash,
	// and size in bytes.
	Save(ctx context.Context, name string, r io.Reader) (path string, hash string, size int64, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// LocalStore keeps blobs on local disk, addressed by content hash so
// identical uploads land on the same file.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, string, int64, error) {
	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return "", "", 0, fmt.Errorf("create temp blob failed: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("write blob failed: %w", err)
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	final := filepath.Join(s.root, hash+filepath.Ext(name))
	if err := os.Rename(tmpName, final); err != nil {
		return "", "", 0, fmt.Errorf("finalize blob failed: %w", err)
	}
	return final, hash, size, nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob failed: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob failed: %w", err)
	}
	return nil
}
