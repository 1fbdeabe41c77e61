package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/setupetc/internal/config"
	"github.com/danieljhkim/setupetc/internal/engine"
)

// resetFlags puts every flag back to its default; cobra keeps parsed values
// between Execute calls on the same command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range cmd.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

type cliEnv struct {
	live   string
	source string
}

// setupCLIEnv creates a live directory and a declared tree with two plain
// entries, and clears environment overrides.
func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	resetFlags(t)
	t.Setenv(config.EnvLiveDir, "")
	t.Setenv(config.EnvConfig, "")
	t.Setenv("IN_NIXOS_ENTER", "")

	root := t.TempDir()
	env := &cliEnv{
		live:   filepath.Join(root, "etc"),
		source: filepath.Join(root, "source"),
	}
	store := filepath.Join(root, "store")
	for _, dir := range []string{env.live, env.source, store} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	env.declare(t, store, "hosts", "127.0.0.1 localhost\n")
	env.declare(t, store, "resolv.conf", "nameserver 10.0.0.1\n")
	return env
}

func (env *cliEnv) declare(t *testing.T, store, name, content string) {
	t.Helper()
	storeFile := filepath.Join(store, name)
	if err := os.WriteFile(storeFile, []byte(content), 0444); err != nil {
		t.Fatalf("failed to write store file: %v", err)
	}
	if err := os.Symlink(storeFile, filepath.Join(env.source, name)); err != nil {
		t.Fatalf("failed to declare %s: %v", name, err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(nil)
	var err error
	output := captureStdout(t, func() {
		err = rootCmd.Execute()
	})
	return output, err
}

func TestActivateCommand(t *testing.T) {
	env := setupCLIEnv(t)

	output, err := run(t, "--live-dir", env.live, env.source)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if target, err := os.Readlink(filepath.Join(env.live, "hosts")); err != nil || target != filepath.Join(env.live, "static", "hosts") {
		t.Errorf("hosts = %q (%v), want a static link", target, err)
	}
	if _, err := os.Stat(filepath.Join(env.live, "NIXOS")); err != nil {
		t.Errorf("marker missing: %v", err)
	}
	if !strings.Contains(output, "Activated") {
		t.Errorf("expected a summary, got:\n%s", output)
	}
}

func TestActivateCommand_JSONOutput(t *testing.T) {
	env := setupCLIEnv(t)

	output, err := run(t, "--live-dir", env.live, "--json", env.source)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result engine.ActivateResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	if result.SourceDir != env.source {
		t.Errorf("sourceDir = %q, want %q", result.SourceDir, env.source)
	}
	if len(result.Applied) != 2 {
		t.Errorf("expected two applied operations, got %+v", result.Applied)
	}
}

func TestActivateCommand_DryRun(t *testing.T) {
	env := setupCLIEnv(t)

	output, err := run(t, "--live-dir", env.live, "--dry-run", env.source)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(output, "Dry Run") || !strings.Contains(output, "hosts") {
		t.Errorf("expected the plan to be printed, got:\n%s", output)
	}
	entries, err := os.ReadDir(env.live)
	if err != nil {
		t.Fatalf("failed to read live dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run changed the live directory: %v", entries)
	}
}

func TestActivateCommand_NestedEnvironment(t *testing.T) {
	env := setupCLIEnv(t)
	t.Setenv("IN_NIXOS_ENTER", "1")

	if _, err := run(t, "--live-dir", env.live, env.source); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, err := os.Lstat(filepath.Join(env.live, "resolv.conf")); !os.IsNotExist(err) {
		t.Error("resolv.conf belongs to the enclosing environment")
	}
	if _, err := os.Lstat(filepath.Join(env.live, "hosts")); err != nil {
		t.Errorf("hosts should still be published: %v", err)
	}
}

func TestActivateCommand_MissingSource(t *testing.T) {
	env := setupCLIEnv(t)

	_, err := run(t, "--live-dir", env.live, filepath.Join(env.source, "missing"))
	if !errors.Is(err, engine.ErrOpenSourceDir) {
		t.Errorf("expected ErrOpenSourceDir, got %v", err)
	}
}

func TestActivateCommand_ConfigFile(t *testing.T) {
	env := setupCLIEnv(t)
	manifestPath := filepath.Join(filepath.Dir(env.live), "owned.list")
	cfgPath := filepath.Join(filepath.Dir(env.live), "setup-etc.yaml")
	cfg := "live_dir: " + env.live + "\nmanifest: " + manifestPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := run(t, "--config", cfgPath, env.source); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, err := os.Stat(manifestPath); err != nil {
		t.Errorf("manifest not written to the configured location: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(env.live, "hosts")); err != nil {
		t.Errorf("hosts not published under the configured live dir: %v", err)
	}
}

func TestActivateCommand_InvalidConfig(t *testing.T) {
	env := setupCLIEnv(t)
	cfgPath := filepath.Join(filepath.Dir(env.live), "setup-etc.toml")
	if err := os.WriteFile(cfgPath, []byte("unknown_key = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := run(t, "--config", cfgPath, env.source); err == nil {
		t.Error("expected an error for an unknown config key")
	}
}

func TestStatusCommand_JSONOutput(t *testing.T) {
	env := setupCLIEnv(t)
	if _, err := run(t, "--live-dir", env.live, env.source); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	resetFlags(t)

	output, err := run(t, "status", "--live-dir", env.live, "--json")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result engine.StatusResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v, output: %q", err, output)
	}
	if !result.Activated {
		t.Error("expected the live directory to be activated")
	}
	if len(result.Entries) != 2 {
		t.Errorf("expected two managed entries, got %+v", result.Entries)
	}
}

func TestStatusCommand_Table(t *testing.T) {
	env := setupCLIEnv(t)
	if _, err := run(t, "--live-dir", env.live, env.source); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	resetFlags(t)

	output, err := run(t, "status", "--live-dir", env.live)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"NAME", "static-link", "hosts"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected status output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestCommandHelp(t *testing.T) {
	commands := []string{"status", "version", "completion"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			resetFlags(t)
			output, err := run(t, name, "--help")
			if err != nil {
				t.Errorf("Execute() for %s --help error = %v", name, err)
			}
			if output == "" {
				t.Errorf("expected help output for %s, got empty", name)
			}
		})
	}
}
