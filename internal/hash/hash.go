// Package hash provides file hashing for drift detection.
//
// setup-etc compares a materialized copy with its static source to report
// copies that were edited in place since the last activation.
package hash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Hasher provides an abstraction for file hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path, following symlinks.
	HashFile(path string) (string, error)
}

// Blake3Hasher implements Hasher using BLAKE3.
type Blake3Hasher struct{}

// NewBlake3Hasher creates a new Blake3Hasher.
func NewBlake3Hasher() *Blake3Hasher {
	return &Blake3Hasher{}
}

// HashFile computes the BLAKE3 digest of the file at the given path.
func (h *Blake3Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Same reports whether two files have identical content.
func Same(h Hasher, a, b string) (bool, error) {
	ha, err := h.HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := h.HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
