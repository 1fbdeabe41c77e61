package engine

import (
	"time"

	"github.com/danieljhkim/setupetc/internal/classify"
	"github.com/danieljhkim/setupetc/internal/planner"
)

// Removal kinds
const (
	RemovedSymlink = "symlink"
	RemovedFile    = "file"
)

// Removal is a removal notice: an obsolete link unlinked by cleanup, or a
// manifest entry dropped because its file is gone.
type Removal struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// ActivateResult represents the result of an activation.
type ActivateResult struct {
	// SourceDir is the declared tree that was activated
	SourceDir string `json:"sourceDir"`

	// StaticRoot is the published root link
	StaticRoot string `json:"staticRoot"`

	// DryRun indicates nothing was changed
	DryRun bool `json:"dryRun"`

	// Cleanup is the cleanup plan
	Cleanup *planner.Plan `json:"cleanup"`

	// Materialize is the materialization plan
	Materialize *planner.Plan `json:"materialize"`

	// Applied lists operations that completed (empty if DryRun)
	Applied []planner.Operation `json:"applied"`

	// Removed lists removal notices in the order they were emitted
	Removed []Removal `json:"removed"`

	// Skipped lists every entry left alone because of an error
	Skipped []planner.Skip `json:"skipped"`

	// Manifest is the manifest written at the end of the run
	Manifest []string `json:"manifest"`

	// MarkerCreated is true when this run created the activation marker
	MarkerCreated bool `json:"markerCreated"`

	// Duration is the wall time of the run
	Duration time.Duration `json:"duration"`
}

// EntryStatus describes one live entry.
type EntryStatus struct {
	Name   string        `json:"name"`
	Kind   classify.Kind `json:"kind"`
	Target string        `json:"target,omitempty"`

	// Drift is true for a materialized copy whose content differs from its
	// static source
	Drift bool `json:"drift,omitempty"`
}

// StatusResult represents the current live directory status.
type StatusResult struct {
	LiveDir    string `json:"liveDir"`
	StaticRoot string `json:"staticRoot"`

	// StaticTarget is the declared tree the static root points at
	StaticTarget string `json:"staticTarget"`

	// Activated is true once the activation marker exists
	Activated bool `json:"activated"`

	Entries []EntryStatus `json:"entries"`

	// Manifest is the manifest as currently persisted
	Manifest []string `json:"manifest"`

	// Missing lists manifest names with no live file
	Missing []string `json:"missing"`
}
