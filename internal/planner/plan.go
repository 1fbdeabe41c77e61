package planner

// Plan is an ordered list of operations plus the entries that could not be planned.
type Plan struct {
	// Operations is the ordered list of operations to execute
	Operations []Operation `json:"operations"`

	// Skips lists entries left untouched because of a per-entry problem
	Skips []Skip `json:"skips"`

	// Ignored lists declared entries deliberately not materialized
	Ignored []string `json:"ignored,omitempty"`
}

// Operation represents a single filesystem operation to execute.
type Operation struct {
	// Type is the operation type: "symlink", "direct_symlink", "copy", "remove"
	Type string `json:"type"`

	// Name is the entry name relative to the live directory
	Name string `json:"name"`

	// LivePath is the absolute path in the live directory
	LivePath string `json:"livePath"`

	// Target is the link value to publish (symlink operations) or the
	// link value being removed (remove operations)
	Target string `json:"target,omitempty"`

	// Source is the file whose bytes are copied (copy operations)
	Source string `json:"source,omitempty"`

	// Mode holds raw permission bits for copy operations
	Mode uint32 `json:"mode,omitempty"`

	// UID and GID are the resolved owner for copy operations
	UID int `json:"uid,omitempty"`
	GID int `json:"gid,omitempty"`

	// ReplaceDir is set when LivePath is a purely static directory that
	// must be removed before the entry can be published
	ReplaceDir bool `json:"replaceDir,omitempty"`
}

// Skip represents an entry that was left alone because of an error.
type Skip struct {
	// Name is the entry name relative to the live or source directory
	Name string `json:"name"`

	// Reason is a human-readable explanation
	Reason string `json:"reason"`

	// Err is the underlying error, if any
	Err error `json:"-"`
}

// Operation type constants
const (
	OpSymlink       = "symlink"
	OpDirectSymlink = "direct_symlink"
	OpCopy          = "copy"
	OpRemove        = "remove"
)

// Layout locates the directories a plan is computed against.
type Layout struct {
	// LiveDir is the directory being reconciled
	LiveDir string

	// StaticRoot is the literal prefix static links carry
	StaticRoot string

	// ResolveRoot is where static targets are inspected. It is StaticRoot
	// once the root is published, or the source directory for a dry run.
	ResolveRoot string

	// SourceDir is the declared tree holding entries and sidecars
	SourceDir string

	// Protected names top-level live entries cleanup never touches
	Protected []string
}

func (l Layout) isProtected(name string) bool {
	for _, p := range l.Protected {
		if p == name {
			return true
		}
	}
	return false
}

// NewPlan creates a new empty Plan.
func NewPlan() *Plan {
	return &Plan{
		Operations: []Operation{},
		Skips:      []Skip{},
	}
}

// AddOperation adds an operation to the plan.
func (p *Plan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// AddSkip records an entry that will not be processed.
func (p *Plan) AddSkip(name, reason string, err error) {
	p.Skips = append(p.Skips, Skip{Name: name, Reason: reason, Err: err})
}

// HasSkips returns true if any entry was skipped.
func (p *Plan) HasSkips() bool {
	return len(p.Skips) > 0
}
