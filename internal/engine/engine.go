// Package engine provides the activation logic of setup-etc.
//
// The engine sequences one activation of the live directory:
//   - publish the declared tree as the static root
//   - remove static links the new tree no longer declares
//   - materialize every declared entry (symlink, direct symlink or stamped copy)
//   - reconcile and persist the manifest of owned copies
//   - mark the activation as completed
//
// Per-entry problems are recorded and logged; only failures that make the
// whole run meaningless are returned as errors.
package engine

import (
	"github.com/rs/zerolog"

	"github.com/danieljhkim/setupetc/internal/clock"
	"github.com/danieljhkim/setupetc/internal/config"
	"github.com/danieljhkim/setupetc/internal/fsops"
	"github.com/danieljhkim/setupetc/internal/hash"
	"github.com/danieljhkim/setupetc/internal/manifest"
	"github.com/danieljhkim/setupetc/internal/planner"
	"github.com/danieljhkim/setupetc/internal/sidecar"
)

// Engine orchestrates all setup-etc operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs        fsops.FS
	sidecars  *sidecar.Reader
	manifests manifest.Store
	hasher    hash.Hasher
	clock     clock.Clock
	paths     config.Paths
	log       zerolog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	sidecars *sidecar.Reader,
	manifests manifest.Store,
	hasher hash.Hasher,
	clk clock.Clock,
	paths config.Paths,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		fs:        fs,
		sidecars:  sidecars,
		manifests: manifests,
		hasher:    hasher,
		clock:     clk,
		paths:     paths,
		log:       logger,
	}
}

// layout returns the planner layout for a run against sourceDir. Static
// targets are inspected through the published root, or straight in the
// source tree when nothing is published (dry run).
func (e *Engine) layout(sourceDir string, dryRun bool) planner.Layout {
	resolveRoot := e.paths.StaticRoot
	if dryRun {
		resolveRoot = sourceDir
	}
	return planner.Layout{
		LiveDir:     e.paths.LiveDir,
		StaticRoot:  e.paths.StaticRoot,
		ResolveRoot: resolveRoot,
		SourceDir:   sourceDir,
		Protected:   e.paths.Protected,
	}
}
