// Package sidecar reads the per-entry metadata files that accompany a
// declared entry in the source tree.
//
// For an entry "sudoers" the source tree may hold:
//   - sudoers.mode: an octal permission string, or "direct-symlink"
//   - sudoers.uid:  an account name, or "+N" for the literal id N
//   - sudoers.gid:  a group name, or "+N" for the literal id N
//
// Only the first line of each file is significant.
package sidecar

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DirectSymlink is the mode directive that links straight to the resolved target.
const DirectSymlink = "direct-symlink"

// Sidecar file suffixes.
const (
	ModeSuffix = ".mode"
	UIDSuffix  = ".uid"
	GIDSuffix  = ".gid"
)

// numericPrefix marks an owner or group as a literal id.
const numericPrefix = "+"

// ErrEmpty is returned when a sidecar file has no first line.
var ErrEmpty = errors.New("sidecar is empty")

// Mode is a parsed .mode sidecar.
type Mode struct {
	// Direct requests a link to the resolved static target.
	Direct bool

	// Perm holds raw permission bits (including set-id and sticky bits)
	// when Direct is false.
	Perm uint32
}

// Owner is a resolved .uid/.gid pair.
type Owner struct {
	UID int
	GID int
}

// FileReader is the subset of fsops.FS needed to read sidecars.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Reader reads and resolves sidecar files.
type Reader struct {
	fs  FileReader
	ids IDResolver
}

// NewReader creates a Reader resolving names through ids.
func NewReader(fs FileReader, ids IDResolver) *Reader {
	return &Reader{fs: fs, ids: ids}
}

// ReadMode reads the .mode sidecar of entryPath. The boolean is false when
// the entry has no mode sidecar.
func (r *Reader) ReadMode(entryPath string) (Mode, bool, error) {
	line, err := r.firstLine(entryPath + ModeSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Mode{}, false, nil
		}
		return Mode{}, true, err
	}

	mode, err := ParseMode(line)
	if err != nil {
		return Mode{}, true, fmt.Errorf("%s%s: %w", entryPath, ModeSuffix, err)
	}
	return mode, true, nil
}

// ReadOwner reads and resolves the .uid and .gid sidecars of entryPath.
// Both files must exist.
func (r *Reader) ReadOwner(entryPath string) (Owner, error) {
	uidLine, err := r.firstLine(entryPath + UIDSuffix)
	if err != nil {
		return Owner{}, err
	}
	uid, err := ResolveID(uidLine, r.ids.LookupUser)
	if err != nil {
		return Owner{}, fmt.Errorf("%s%s: %w", entryPath, UIDSuffix, err)
	}

	gidLine, err := r.firstLine(entryPath + GIDSuffix)
	if err != nil {
		return Owner{}, err
	}
	gid, err := ResolveID(gidLine, r.ids.LookupGroup)
	if err != nil {
		return Owner{}, fmt.Errorf("%s%s: %w", entryPath, GIDSuffix, err)
	}

	return Owner{UID: uid, GID: gid}, nil
}

func (r *Reader) firstLine(path string) (string, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("could not read %s: %w", path, ErrEmpty)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return line, nil
}

// ParseMode parses the first line of a .mode sidecar.
func ParseMode(line string) (Mode, error) {
	if line == DirectSymlink {
		return Mode{Direct: true}, nil
	}
	perm, err := strconv.ParseUint(line, 8, 32)
	if err != nil {
		return Mode{}, fmt.Errorf("invalid mode %q: %w", line, err)
	}
	if perm > 07777 {
		return Mode{}, fmt.Errorf("invalid mode %q: out of range", line)
	}
	return Mode{Perm: uint32(perm)}, nil
}

// ResolveID turns a .uid/.gid line into a numeric id. "+N" is taken
// literally; anything else is looked up by name, and a name the database
// does not know resolves to 0.
func ResolveID(line string, lookup func(name string) (int, error)) (int, error) {
	if rest, ok := strings.CutPrefix(line, numericPrefix); ok {
		id, err := strconv.Atoi(rest)
		if err != nil || id < 0 {
			return 0, fmt.Errorf("invalid numeric id %q", line)
		}
		return id, nil
	}

	id, err := lookup(line)
	if err != nil {
		return 0, nil
	}
	return id, nil
}

// StemOf returns the entry name a sidecar file belongs to. ok is false when
// name does not carry a sidecar suffix.
func StemOf(name string) (stem string, ok bool) {
	for _, suffix := range []string{ModeSuffix, UIDSuffix, GIDSuffix} {
		if stem, ok := strings.CutSuffix(name, suffix); ok && stem != "" {
			return stem, true
		}
	}
	return "", false
}
