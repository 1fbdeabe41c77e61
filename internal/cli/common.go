package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/clock"
	"github.com/danieljhkim/setupetc/internal/config"
	"github.com/danieljhkim/setupetc/internal/engine"
	"github.com/danieljhkim/setupetc/internal/fsops"
	"github.com/danieljhkim/setupetc/internal/hash"
	"github.com/danieljhkim/setupetc/internal/logging"
	"github.com/danieljhkim/setupetc/internal/manifest"
	"github.com/danieljhkim/setupetc/internal/sidecar"
)

// loadPaths resolves locations from the defaults, then the config file, then
// the --live-dir flag.
func loadPaths() (*config.Paths, error) {
	paths := config.DefaultPaths()

	cfg := configFile
	if cfg == "" {
		cfg = os.Getenv(config.EnvConfig)
	}
	if cfg != "" {
		loaded, err := config.Load(cfg, paths)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		paths = loaded
	}

	if liveDir != "" {
		abs, err := filepath.Abs(liveDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve live directory: %w", err)
		}
		paths.Rebase(abs)
	}

	if err := paths.Validate(); err != nil {
		return nil, fmt.Errorf("invalid paths: %w", err)
	}
	return paths, nil
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(paths *config.Paths) *engine.Engine {
	fs := fsops.NewRealFS()
	return engine.New(
		fs,
		sidecar.NewReader(fs, sidecar.NewSystemResolver()),
		manifest.NewFileStore(fs, paths.Manifest),
		hash.NewBlake3Hasher(),
		&clock.RealClock{},
		*paths,
		logging.New(os.Stderr),
	)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
