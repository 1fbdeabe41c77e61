package engine

// ActivateRequest represents a request to activate a declared tree.
type ActivateRequest struct {
	// SourceDir is the root of the declared tree
	SourceDir string

	// DryRun performs planning only without making changes
	DryRun bool

	// NestedEnvironment is true when the resolver entry belongs to an
	// enclosing environment and must be left alone
	NestedEnvironment bool
}

// StatusRequest represents a request for live directory status.
type StatusRequest struct {
	// IncludeForeign lists foreign entries as well as managed ones
	IncludeForeign bool
}
