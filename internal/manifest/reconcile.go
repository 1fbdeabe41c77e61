package manifest

import (
	"github.com/danieljhkim/setupetc/internal/fsops"
)

// Exister is the subset of fsops.FS Reconcile needs.
type Exister interface {
	Exists(path string) (bool, error)
}

// Dropped is a name removed from the manifest because its live file is gone.
type Dropped struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Reconciliation is the outcome of Reconcile.
type Reconciliation struct {
	// Kept is the manifest to persist.
	Kept *Manifest

	// Dropped lists names whose live file no longer exists, in check order.
	Dropped []Dropped
}

// Reconcile builds the next manifest from the previous one followed by the
// names materialized in this run. Duplicates keep their first position.
// A name stays only while a live entry exists at liveDir/name; nothing is
// deleted here. Names that are not valid relative paths are dropped.
func Reconcile(fs Exister, liveDir string, previous *Manifest, materialized []string) Reconciliation {
	out := Reconciliation{Kept: New()}
	seen := make(map[string]bool, len(previous.Names)+len(materialized))

	candidates := make([]string, 0, len(previous.Names)+len(materialized))
	candidates = append(candidates, previous.Names...)
	candidates = append(candidates, materialized...)

	for _, name := range candidates {
		if seen[name] {
			continue
		}
		seen[name] = true

		path, err := fsops.JoinRel(liveDir, name)
		if err != nil {
			out.Dropped = append(out.Dropped, Dropped{Name: name, Path: liveDir + "/" + name})
			continue
		}

		exists, err := fs.Exists(path)
		if err != nil || !exists {
			out.Dropped = append(out.Dropped, Dropped{Name: name, Path: path})
			continue
		}
		out.Kept.Names = append(out.Kept.Names, name)
	}

	return out
}
