package planner

import (
	"os"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/classify"
	"github.com/danieljhkim/setupetc/internal/fsops"
	"github.com/danieljhkim/setupetc/internal/sidecar"
)

// MaterializeOptions tunes PlanMaterialize.
type MaterializeOptions struct {
	// NestedEnvironment is true when the resolver entry is owned by the
	// enclosing environment
	NestedEnvironment bool

	// ResolverName is the entry skipped inside a nested environment
	ResolverName string
}

// PlanMaterialize decides how every declared entry is published in the live
// directory. sourceEntries are the immediate children of layout.SourceDir,
// in enumeration order. Sidecar files are metadata and not entries.
func PlanMaterialize(
	fs classify.Inspector,
	sidecars *sidecar.Reader,
	layout Layout,
	sourceEntries []os.DirEntry,
	opts MaterializeOptions,
) *Plan {
	plan := NewPlan()

	declared := make(map[string]bool, len(sourceEntries))
	for _, entry := range sourceEntries {
		declared[entry.Name()] = true
	}

	for _, entry := range sourceEntries {
		name := entry.Name()
		if stem, ok := sidecar.StemOf(name); ok && declared[stem] {
			continue
		}
		if opts.NestedEnvironment && name == opts.ResolverName {
			plan.Ignored = append(plan.Ignored, name)
			continue
		}

		op, ok := planEntry(fs, sidecars, layout, name, plan)
		if !ok {
			continue
		}
		if !checkLiveDir(fs, layout, &op, plan) {
			continue
		}
		plan.AddOperation(op)
	}

	return plan
}

// planEntry builds the operation for one declared entry, recording a skip on
// failure.
func planEntry(fs classify.Inspector, sidecars *sidecar.Reader, layout Layout, name string, plan *Plan) (Operation, bool) {
	livePath, err := fsops.JoinRel(layout.LiveDir, name)
	if err != nil {
		plan.AddSkip(name, "invalid entry name", err)
		return Operation{}, false
	}
	staticPath := filepath.Join(layout.ResolveRoot, name)
	sourcePath := filepath.Join(layout.SourceDir, name)

	mode, present, err := sidecars.ReadMode(sourcePath)
	if err != nil {
		plan.AddSkip(name, "could not read mode sidecar", err)
		return Operation{}, false
	}

	switch {
	case !present:
		return Operation{
			Type:     OpSymlink,
			Name:     name,
			LivePath: livePath,
			Target:   filepath.Join(layout.StaticRoot, name),
		}, true

	case mode.Direct:
		value, err := fs.Readlink(staticPath)
		if err != nil {
			plan.AddSkip(name, "could not read symlink "+staticPath, err)
			return Operation{}, false
		}
		return Operation{
			Type:     OpDirectSymlink,
			Name:     name,
			LivePath: livePath,
			Target:   value,
		}, true

	default:
		owner, err := sidecars.ReadOwner(sourcePath)
		if err != nil {
			plan.AddSkip(name, "could not read owner sidecars", err)
			return Operation{}, false
		}
		return Operation{
			Type:     OpCopy,
			Name:     name,
			LivePath: livePath,
			Source:   staticPath,
			Mode:     mode.Perm,
			UID:      owner.UID,
			GID:      owner.GID,
		}, true
	}
}

// checkLiveDir handles a live path that is currently a real directory: a
// purely static one may be replaced, anything else blocks the entry.
func checkLiveDir(fs classify.Inspector, layout Layout, op *Operation, plan *Plan) bool {
	info, err := fs.Lstat(op.LivePath)
	if err != nil || !info.IsDir() {
		return true
	}
	if !classify.IsStatic(fs, layout.StaticRoot, op.LivePath) {
		plan.AddSkip(op.Name, "live path is a directory with foreign content", nil)
		return false
	}
	op.ReplaceDir = true
	return true
}
