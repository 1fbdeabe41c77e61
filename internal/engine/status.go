package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/classify"
	"github.com/danieljhkim/setupetc/internal/hash"
)

// Status returns the current state of the live directory without changing it.
func (e *Engine) Status(ctx context.Context, req *StatusRequest) (*StatusResult, error) {
	result := &StatusResult{
		LiveDir:    e.paths.LiveDir,
		StaticRoot: e.paths.StaticRoot,
		Entries:    []EntryStatus{},
		Manifest:   []string{},
		Missing:    []string{},
	}

	target, err := e.fs.Readlink(e.paths.StaticRoot)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read static root: %w", err)
	}
	result.StaticTarget = target

	activated, err := e.fs.Exists(e.paths.Marker)
	if err != nil {
		return nil, fmt.Errorf("failed to check activation marker: %w", err)
	}
	result.Activated = activated

	m, err := e.manifests.Load()
	if err != nil {
		return nil, err
	}
	result.Manifest = m.Names
	owned := m.Set()

	entries, err := e.fs.ReadDir(e.paths.LiveDir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpenLiveDir, e.paths.LiveDir, err)
	}

	bookkeeping := map[string]bool{
		e.paths.StaticRoot: true,
		e.paths.Manifest:   true,
		e.paths.Marker:     true,
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		livePath := filepath.Join(e.paths.LiveDir, entry.Name())
		if bookkeeping[livePath] {
			continue
		}

		status := EntryStatus{
			Name: entry.Name(),
			Kind: classify.Classify(e.fs, e.paths.StaticRoot, livePath, owned[entry.Name()]),
		}
		switch status.Kind {
		case classify.KindForeign:
			if !req.IncludeForeign {
				continue
			}
		case classify.KindStaticLink:
			status.Target, _ = e.fs.Readlink(livePath)
		case classify.KindMaterializedCopy:
			status.Drift = e.drifted(livePath, filepath.Join(e.paths.StaticRoot, entry.Name()))
		}
		result.Entries = append(result.Entries, status)
	}

	for _, name := range m.Names {
		exists, err := e.fs.Exists(filepath.Join(e.paths.LiveDir, name))
		if err != nil || !exists {
			result.Missing = append(result.Missing, name)
		}
	}

	return result, nil
}

// drifted reports whether a materialized copy no longer matches its static
// source. A source that cannot be read is not reported as drift.
func (e *Engine) drifted(livePath, staticPath string) bool {
	same, err := hash.Same(e.hasher, livePath, staticPath)
	if err != nil {
		e.log.Debug().Err(err).Str("path", livePath).Msg("could not compare copy with its source")
		return false
	}
	return !same
}
