// Package classify decides which live entries belong to setup-etc.
//
// An entry is "static" when it is a symlink whose literal value points into
// the static root, or a directory made up solely of static entries. The
// check is textual and never resolves links, so it works on dangling links
// and never descends through a symlink (no cycles are possible). Anything
// that cannot be inspected is reported as not static: an entry we cannot
// read is treated as foreign and left alone.
package classify

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind labels a live entry.
type Kind string

const (
	// KindStaticLink is a symlink into the static root.
	KindStaticLink Kind = "static-link"

	// KindStaticSubtree is a directory containing only static entries.
	KindStaticSubtree Kind = "static-subtree"

	// KindMaterializedCopy is a regular file listed in the manifest.
	KindMaterializedCopy Kind = "materialized-copy"

	// KindForeign is anything setup-etc did not create.
	KindForeign Kind = "foreign"
)

// Inspector is the read-only subset of fsops.FS the classifier needs.
type Inspector interface {
	Lstat(path string) (os.FileInfo, error)
	Readlink(path string) (string, error)
	ReadDir(path string) ([]os.DirEntry, error)
}

// HasStaticPrefix reports whether a literal link value points into staticRoot.
func HasStaticPrefix(staticRoot, linkValue string) bool {
	return strings.HasPrefix(linkValue, staticRoot+string(filepath.Separator))
}

// IsStatic reports whether path is purely static.
func IsStatic(fs Inspector, staticRoot, path string) bool {
	info, err := fs.Lstat(path)
	if err != nil {
		return false
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		value, err := fs.Readlink(path)
		if err != nil {
			return false
		}
		return HasStaticPrefix(staticRoot, value)

	case info.IsDir():
		entries, err := fs.ReadDir(path)
		if err != nil {
			return false
		}
		for _, entry := range entries {
			if !IsStatic(fs, staticRoot, filepath.Join(path, entry.Name())) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// IsStaticLink reports whether path itself is a symlink into staticRoot.
func IsStaticLink(fs Inspector, staticRoot, path string) bool {
	info, err := fs.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	value, err := fs.Readlink(path)
	if err != nil {
		return false
	}
	return HasStaticPrefix(staticRoot, value)
}

// Classify labels the live entry at path. owned reports whether its name is
// listed in the manifest.
func Classify(fs Inspector, staticRoot, path string, owned bool) Kind {
	info, err := fs.Lstat(path)
	if err != nil {
		return KindForeign
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		if IsStaticLink(fs, staticRoot, path) {
			return KindStaticLink
		}
	case info.IsDir():
		if IsStatic(fs, staticRoot, path) {
			return KindStaticSubtree
		}
	case info.Mode().IsRegular():
		if owned {
			return KindMaterializedCopy
		}
	}

	return KindForeign
}
