// Package planner handles the planning phase of an activation.
//
// The planner inspects the live directory and the declared source tree and
// produces a deterministic list of operations without touching the disk.
// The engine executes the plan; a dry run simply returns it.
//
// Key responsibilities:
//   - Find obsolete static links left by earlier activations (PlanCleanup)
//   - Decide how each declared entry is materialized (PlanMaterialize)
//   - Read sidecar metadata and turn unreadable metadata into per-entry skips
//   - Refuse to replace live directories that hold foreign content
package planner
