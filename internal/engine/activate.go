package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/manifest"
	"github.com/danieljhkim/setupetc/internal/planner"
)

// Activate reconciles the live directory with the declared tree.
//
// Algorithm steps:
// 1. Publish the static root (fatal on failure)
// 2. Enumerate the live directory (fatal) and remove obsolete static links
// 3. Load the previous manifest
// 4. Enumerate the source tree (fatal) and materialize every declared entry
// 5. Reconcile and persist the manifest
// 6. Create the activation marker
// 7. Return result
func (e *Engine) Activate(ctx context.Context, req *ActivateRequest) (*ActivateResult, error) {
	start := e.clock.Now()

	if req.SourceDir == "" {
		return nil, fmt.Errorf("%w: source directory is empty", ErrValidation)
	}
	sourceDir := filepath.Clean(req.SourceDir)

	result := &ActivateResult{
		SourceDir:  sourceDir,
		StaticRoot: e.paths.StaticRoot,
		DryRun:     req.DryRun,
		Applied:    []planner.Operation{},
		Removed:    []Removal{},
		Skipped:    []planner.Skip{},
		Manifest:   []string{},
	}
	layout := e.layout(sourceDir, req.DryRun)

	// Step 1: Publish the static root
	if !req.DryRun {
		if err := e.fs.AtomicSymlink(sourceDir, e.paths.StaticRoot); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrPublishRoot, e.paths.StaticRoot, err)
		}
		e.log.Debug().Str("root", e.paths.StaticRoot).Str("target", sourceDir).Msg("published static root")
	}

	// Step 2: Remove obsolete static links
	liveEntries, err := e.fs.ReadDir(e.paths.LiveDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpenLiveDir, e.paths.LiveDir, err)
	}
	result.Cleanup = planner.PlanCleanup(e.fs, layout, liveEntries)
	e.recordSkips(result, result.Cleanup.Skips)
	if !req.DryRun {
		if err := e.execute(ctx, result, result.Cleanup, nil); err != nil {
			return result, err
		}
	}

	// Step 3: Load the previous manifest
	previous, err := e.manifests.Load()
	if err != nil {
		e.log.Warn().Err(err).Str("manifest", e.manifests.Path()).Msg("could not read manifest, starting empty")
	}

	// Step 4: Materialize declared entries
	sourceEntries, err := e.fs.ReadDir(sourceDir)
	if err != nil {
		return result, fmt.Errorf("%w %s: %w", ErrOpenSourceDir, sourceDir, err)
	}
	result.Materialize = planner.PlanMaterialize(e.fs, e.sidecars, layout, sourceEntries, planner.MaterializeOptions{
		NestedEnvironment: req.NestedEnvironment,
		ResolverName:      e.paths.ResolverName,
	})
	for _, name := range result.Materialize.Ignored {
		e.log.Debug().Str("entry", name).Msg("left to the nested environment")
	}
	e.recordSkips(result, result.Materialize.Skips)

	var materialized []string
	if req.DryRun {
		for _, op := range result.Materialize.Operations {
			if op.Type == planner.OpCopy {
				materialized = append(materialized, op.Name)
			}
		}
	} else if err := e.execute(ctx, result, result.Materialize, &materialized); err != nil {
		return result, err
	}

	// Step 5: Reconcile and persist the manifest
	e.reconcileManifest(result, previous, materialized, req.DryRun)

	// Step 6: Mark the activation
	if !req.DryRun {
		e.markActivated(result)
	}

	result.Duration = e.clock.Now().Sub(start)
	e.log.Debug().
		Int("applied", len(result.Applied)).
		Int("removed", len(result.Removed)).
		Int("skipped", len(result.Skipped)).
		Dur("duration", result.Duration).
		Msg("activation finished")

	return result, nil
}

// reconcileManifest drops vanished names, reports them, and persists the
// result. A write failure is reported but does not fail the run.
func (e *Engine) reconcileManifest(result *ActivateResult, previous *manifest.Manifest, materialized []string, dryRun bool) {
	var exister manifest.Exister = e.fs
	if dryRun {
		exister = plannedExister{Exister: e.fs, planned: plannedPaths(e.paths.LiveDir, materialized)}
	}
	rec := manifest.Reconcile(exister, e.paths.LiveDir, previous, materialized)

	for _, d := range rec.Dropped {
		if !dryRun {
			e.log.Info().Str("path", d.Path).Msg("removing obsolete file")
		}
		result.Removed = append(result.Removed, Removal{Kind: RemovedFile, Name: d.Name, Path: d.Path})
	}
	result.Manifest = rec.Kept.Names

	if dryRun {
		return
	}
	if err := e.manifests.Save(rec.Kept); err != nil {
		e.log.Error().Err(err).Str("manifest", e.manifests.Path()).Msg("could not write manifest")
	}
}

// markActivated creates the activation marker if it is absent.
func (e *Engine) markActivated(result *ActivateResult) {
	exists, err := e.fs.Exists(e.paths.Marker)
	if err != nil {
		e.log.Warn().Err(err).Str("marker", e.paths.Marker).Msg("could not inspect activation marker")
		return
	}
	if exists {
		return
	}
	if err := e.fs.Touch(e.paths.Marker); err != nil {
		e.log.Warn().Err(err).Str("marker", e.paths.Marker).Msg("could not create activation marker")
		return
	}
	result.MarkerCreated = true
}

func (e *Engine) recordSkips(result *ActivateResult, skips []planner.Skip) {
	for _, s := range skips {
		e.logSkip(s)
		result.Skipped = append(result.Skipped, s)
	}
}

func (e *Engine) logSkip(s planner.Skip) {
	ev := e.log.Warn().Str("entry", s.Name)
	if s.Err != nil {
		ev = ev.Err(s.Err)
	}
	ev.Msg(s.Reason)
}

// plannedExister reports planned copies as present, since a dry run never
// writes them.
type plannedExister struct {
	manifest.Exister
	planned map[string]bool
}

func (p plannedExister) Exists(path string) (bool, error) {
	if p.planned[path] {
		return true, nil
	}
	return p.Exister.Exists(path)
}

func plannedPaths(liveDir string, names []string) map[string]bool {
	paths := make(map[string]bool, len(names))
	for _, name := range names {
		paths[filepath.Join(liveDir, name)] = true
	}
	return paths
}
