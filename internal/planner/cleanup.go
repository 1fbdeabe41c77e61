package planner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/setupetc/internal/classify"
)

// PlanCleanup finds top-level live links into the static root whose static
// counterpart is gone or is no longer a link. Entries that are not static
// links, protected names and anything that cannot be inspected are left alone.
func PlanCleanup(fs classify.Inspector, layout Layout, liveEntries []os.DirEntry) *Plan {
	plan := NewPlan()

	for _, entry := range liveEntries {
		name := entry.Name()
		if layout.isProtected(name) {
			continue
		}

		livePath := filepath.Join(layout.LiveDir, name)
		info, err := fs.Lstat(livePath)
		if err != nil {
			plan.AddSkip(name, "could not inspect live entry", err)
			continue
		}
		if info.Mode()&os.ModeSymlink == 0 {
			continue
		}

		value, err := fs.Readlink(livePath)
		if err != nil {
			plan.AddSkip(name, "could not read symlink", err)
			continue
		}
		if !classify.HasStaticPrefix(layout.StaticRoot, value) {
			continue
		}

		staticInfo, err := fs.Lstat(filepath.Join(layout.ResolveRoot, name))
		switch {
		case err == nil && staticInfo.Mode()&os.ModeSymlink != 0:
			continue
		case err != nil && !errors.Is(err, os.ErrNotExist):
			plan.AddSkip(name, fmt.Sprintf("could not inspect static target of %s", livePath), err)
			continue
		}

		plan.AddOperation(Operation{
			Type:     OpRemove,
			Name:     name,
			LivePath: livePath,
			Target:   value,
		})
	}

	return plan
}
