package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/setupetc/internal/clock"
	"github.com/danieljhkim/setupetc/internal/config"
	"github.com/danieljhkim/setupetc/internal/fsops"
	"github.com/danieljhkim/setupetc/internal/hash"
	"github.com/danieljhkim/setupetc/internal/manifest"
	"github.com/danieljhkim/setupetc/internal/sidecar"
)

// testEnv is a throwaway live directory plus a declared tree whose entries
// link into a fake store, the way a built configuration tree looks.
type testEnv struct {
	root   string
	live   string
	source string
	store  string
	paths  *config.Paths
	logs   *bytes.Buffer
	clock  *clock.FakeClock
	engine *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:   root,
		live:   filepath.Join(root, "etc"),
		source: filepath.Join(root, "source"),
		store:  filepath.Join(root, "store"),
		logs:   &bytes.Buffer{},
		clock:  clock.NewFakeClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), time.Second),
	}
	for _, dir := range []string{env.live, env.source, env.store} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	env.paths = config.PathsFor(env.live)
	env.rebuild()
	return env
}

// rebuild wires a fresh engine against env.paths. Owner names resolve to the
// test process's own ids so stamped copies work without privileges.
func (env *testEnv) rebuild() {
	fs := fsops.NewRealFS()
	ids := &sidecar.StaticResolver{
		Users:  map[string]int{"root": os.Getuid()},
		Groups: map[string]int{"root": os.Getgid()},
	}
	env.engine = New(
		fs,
		sidecar.NewReader(fs, ids),
		manifest.NewFileStore(fs, env.paths.Manifest),
		hash.NewBlake3Hasher(),
		env.clock,
		*env.paths,
		zerolog.New(env.logs),
	)
}

func (env *testEnv) declare(t *testing.T, name, content string) {
	t.Helper()
	storeFile := filepath.Join(env.store, name)
	if err := os.WriteFile(storeFile, []byte(content), 0444); err != nil {
		t.Fatalf("failed to write store file: %v", err)
	}
	if err := os.Symlink(storeFile, filepath.Join(env.source, name)); err != nil {
		t.Fatalf("failed to declare %s: %v", name, err)
	}
}

func (env *testEnv) sidecar(t *testing.T, name, suffix, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(env.source, name+suffix), []byte(content), 0444); err != nil {
		t.Fatalf("failed to write sidecar: %v", err)
	}
}

// declareCopy declares name as a stamped copy owned by "root".
func (env *testEnv) declareCopy(t *testing.T, name, content, mode string) {
	t.Helper()
	env.declare(t, name, content)
	env.sidecar(t, name, sidecar.ModeSuffix, mode+"\n")
	env.sidecar(t, name, sidecar.UIDSuffix, "root\n")
	env.sidecar(t, name, sidecar.GIDSuffix, "root\n")
}

func (env *testEnv) livePath(name string) string {
	return filepath.Join(env.live, name)
}

func (env *testEnv) staticPath(name string) string {
	return filepath.Join(env.paths.StaticRoot, name)
}

func (env *testEnv) writeLive(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(env.livePath(name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write live file: %v", err)
	}
}

func (env *testEnv) linkLive(t *testing.T, name, target string) {
	t.Helper()
	if err := os.Symlink(target, env.livePath(name)); err != nil {
		t.Fatalf("failed to create live link: %v", err)
	}
}

func (env *testEnv) readManifest(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(env.paths.Manifest)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	return string(data)
}

func (env *testEnv) countLogs(msg string) int {
	return strings.Count(env.logs.String(), `"message":"`+msg+`"`)
}

func readlink(t *testing.T, path string) string {
	t.Helper()
	value, err := os.Readlink(path)
	if err != nil {
		t.Fatalf("failed to read link %s: %v", path, err)
	}
	return value
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}
