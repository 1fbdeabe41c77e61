package integration

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/setupetc/internal/clock"
	"github.com/danieljhkim/setupetc/internal/config"
	"github.com/danieljhkim/setupetc/internal/engine"
	"github.com/danieljhkim/setupetc/internal/fsops"
	"github.com/danieljhkim/setupetc/internal/hash"
	"github.com/danieljhkim/setupetc/internal/manifest"
	"github.com/danieljhkim/setupetc/internal/sidecar"
)

var errInjected = errors.New("injected failure")

// Fault kinds understood by faultFS.
const (
	faultSymlink = "symlink"
	faultCopy    = "copy"
	faultRemove  = "remove"
	faultWrite   = "write"
)

// faultFS is the real filesystem with failures injected on chosen paths.
type faultFS struct {
	*fsops.RealFS
	faults map[string]bool
}

func newFaultFS() *faultFS {
	return &faultFS{
		RealFS: fsops.NewRealFS(),
		faults: make(map[string]bool),
	}
}

func (fs *faultFS) failOn(kind, path string) {
	fs.faults[kind+" "+path] = true
}

func (fs *faultFS) check(kind, path string) error {
	if fs.faults[kind+" "+path] {
		return errInjected
	}
	return nil
}

func (fs *faultFS) AtomicSymlink(target, linkPath string) error {
	if err := fs.check(faultSymlink, linkPath); err != nil {
		return err
	}
	return fs.RealFS.AtomicSymlink(target, linkPath)
}

func (fs *faultFS) CopyStamped(src, dst string, mode uint32, uid, gid int) error {
	if err := fs.check(faultCopy, dst); err != nil {
		return err
	}
	return fs.RealFS.CopyStamped(src, dst, mode, uid, gid)
}

func (fs *faultFS) Remove(path string) error {
	if err := fs.check(faultRemove, path); err != nil {
		return err
	}
	return fs.RealFS.Remove(path)
}

func (fs *faultFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := fs.check(faultWrite, path); err != nil {
		return err
	}
	return fs.RealFS.AtomicWrite(path, data, perm)
}

// testSystem is a live directory, a store and an engine wired the way the
// command line wires it, on top of faultFS.
type testSystem struct {
	root  string
	store string
	paths *config.Paths
	fs    *faultFS
	logs  *bytes.Buffer
	eng   *engine.Engine
}

func setupTestSystem(t *testing.T) *testSystem {
	t.Helper()
	root := t.TempDir()
	sys := &testSystem{
		root:  root,
		store: filepath.Join(root, "store"),
		paths: config.PathsFor(filepath.Join(root, "etc")),
		fs:    newFaultFS(),
		logs:  &bytes.Buffer{},
	}
	for _, dir := range []string{sys.paths.LiveDir, sys.store} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	sys.wire()
	return sys
}

func (sys *testSystem) wire() {
	ids := &sidecar.StaticResolver{
		Users:  map[string]int{"root": os.Getuid()},
		Groups: map[string]int{"root": os.Getgid()},
	}
	sys.eng = engine.New(
		sys.fs,
		sidecar.NewReader(sys.fs, ids),
		manifest.NewFileStore(sys.fs, sys.paths.Manifest),
		hash.NewBlake3Hasher(),
		clock.NewFakeClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), 0),
		*sys.paths,
		zerolog.New(sys.logs),
	)
}

// generation is one built configuration tree.
type generation struct {
	dir string
}

func (sys *testSystem) newGeneration(t *testing.T, name string) *generation {
	t.Helper()
	dir := filepath.Join(sys.root, "generations", name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create generation: %v", err)
	}
	return &generation{dir: dir}
}

// declare adds an entry backed by a store file holding content.
func (sys *testSystem) declare(t *testing.T, gen *generation, name, content string) {
	t.Helper()
	storeFile := filepath.Join(sys.store, filepath.Base(gen.dir)+"-"+name)
	if err := os.WriteFile(storeFile, []byte(content), 0444); err != nil {
		t.Fatalf("failed to write store file: %v", err)
	}
	if err := os.Symlink(storeFile, filepath.Join(gen.dir, name)); err != nil {
		t.Fatalf("failed to declare %s: %v", name, err)
	}
}

// declareCopy adds an entry materialized as a root owned copy with mode.
func (sys *testSystem) declareCopy(t *testing.T, gen *generation, name, content, mode string) {
	t.Helper()
	sys.declare(t, gen, name, content)
	for suffix, value := range map[string]string{
		sidecar.ModeSuffix: mode,
		sidecar.UIDSuffix:  "root",
		sidecar.GIDSuffix:  "root",
	} {
		if err := os.WriteFile(filepath.Join(gen.dir, name+suffix), []byte(value+"\n"), 0444); err != nil {
			t.Fatalf("failed to write sidecar: %v", err)
		}
	}
}

func (sys *testSystem) live(name string) string {
	return filepath.Join(sys.paths.LiveDir, name)
}

func (sys *testSystem) static(name string) string {
	return filepath.Join(sys.paths.StaticRoot, name)
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("failed to inspect %s: %v", path, err)
	}
	return false
}
