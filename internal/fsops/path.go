package fsops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxPathLen mirrors PATH_MAX on Linux, including the terminating NUL.
const maxPathLen = 4096

// ValidateRelPath validates a relative entry name for safety.
// Returns an error if the name is empty, absolute, has empty components or
// escapes its root.
func ValidateRelPath(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("invalid path: empty")
	}
	if filepath.IsAbs(relPath) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", relPath)
	}

	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		switch part {
		case "":
			return fmt.Errorf("invalid path: empty component in %q", relPath)
		case ".", "..":
			return fmt.Errorf("invalid path: %q component not allowed in %q", part, relPath)
		}
	}

	return nil
}

// JoinRel joins a validated relative name onto root. The result is never
// longer than the platform path limit.
func JoinRel(root, relPath string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("invalid root: empty")
	}
	if err := ValidateRelPath(relPath); err != nil {
		return "", err
	}

	joined := filepath.Join(root, relPath)
	if len(joined) >= maxPathLen {
		return "", fmt.Errorf("path too long: %d bytes under %q", len(joined), root)
	}
	return joined, nil
}
