package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/classify"
	"github.com/danieljhkim/setupetc/internal/planner"
)

// execute runs every operation of plan in order. A failing operation is
// recorded as a skip and the run moves on to the next entry; only
// cancellation stops it. Names of completed copies are appended to
// materialized when it is non-nil.
func (e *Engine) execute(ctx context.Context, result *ActivateResult, plan *planner.Plan, materialized *[]string) error {
	for _, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.executeOperation(op); err != nil {
			skip := planner.Skip{Name: op.Name, Reason: err.Error(), Err: err}
			e.logSkip(skip)
			result.Skipped = append(result.Skipped, skip)
			continue
		}
		result.Applied = append(result.Applied, op)

		switch op.Type {
		case planner.OpRemove:
			e.log.Info().Str("path", op.LivePath).Msg("removing obsolete symlink")
			result.Removed = append(result.Removed, Removal{Kind: RemovedSymlink, Name: op.Name, Path: op.LivePath})
		case planner.OpCopy:
			if materialized != nil {
				*materialized = append(*materialized, op.Name)
			}
		}
	}
	return nil
}

// executeOperation performs a single filesystem operation.
func (e *Engine) executeOperation(op planner.Operation) error {
	switch op.Type {
	case planner.OpRemove:
		return e.executeRemove(op)
	case planner.OpSymlink, planner.OpDirectSymlink:
		return e.executeSymlink(op)
	case planner.OpCopy:
		return e.executeCopy(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// executeRemove unlinks an obsolete static link.
func (e *Engine) executeRemove(op planner.Operation) error {
	if err := e.fs.Remove(op.LivePath); err != nil {
		return fmt.Errorf("failed to remove obsolete symlink: %w", err)
	}
	return nil
}

// executeSymlink publishes a link, replacing whatever is at the live path.
func (e *Engine) executeSymlink(op planner.Operation) error {
	if err := e.prepare(op); err != nil {
		return err
	}
	if err := e.fs.AtomicSymlink(op.Target, op.LivePath); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}

// executeCopy publishes an owner and mode stamped copy.
func (e *Engine) executeCopy(op planner.Operation) error {
	if err := e.prepare(op); err != nil {
		return err
	}
	if err := e.fs.CopyStamped(op.Source, op.LivePath, op.Mode, op.UID, op.GID); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}
	return nil
}

// prepare makes sure the parent exists and clears a purely static directory
// occupying the live path. The directory is re-checked right before removal.
func (e *Engine) prepare(op planner.Operation) error {
	if err := e.fs.MkdirAll(filepath.Dir(op.LivePath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if !op.ReplaceDir {
		return nil
	}
	if !classify.IsStatic(e.fs, e.paths.StaticRoot, op.LivePath) {
		return fmt.Errorf("live directory %s is no longer purely static", op.LivePath)
	}
	if err := e.fs.RemoveAll(op.LivePath); err != nil {
		return fmt.Errorf("failed to remove static directory: %w", err)
	}
	return nil
}
