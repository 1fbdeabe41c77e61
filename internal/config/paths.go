// Package config manages setup-etc filesystem locations.
//
// Every location derives from the live directory (default /etc), which can
// be moved with SETUP_ETC_LIVE_DIR. An optional config file (TOML or YAML,
// picked by extension) overrides individual fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvLiveDir overrides the live directory.
	EnvLiveDir = "SETUP_ETC_LIVE_DIR"

	// EnvConfig names a config file to load.
	EnvConfig = "SETUP_ETC_CONFIG"

	// DefaultLiveDir is the directory setup-etc reconciles.
	DefaultLiveDir = "/etc"
)

// Paths contains all the filesystem locations used by setup-etc.
type Paths struct {
	// LiveDir is the mutable directory being reconciled (default: /etc)
	LiveDir string

	// StaticRoot is the published symlink to the declared tree (default: /etc/static)
	StaticRoot string

	// Manifest lists the copies setup-etc owns (default: /etc/.clean)
	Manifest string

	// Marker exists once an activation has completed (default: /etc/NIXOS)
	Marker string

	// Protected names top-level live entries cleanup never touches
	Protected []string

	// NestedEnvVar is set when running inside a nested environment
	NestedEnvVar string

	// ResolverName is the entry left alone inside a nested environment
	ResolverName string
}

// PathsFor returns the default layout rooted at liveDir.
func PathsFor(liveDir string) *Paths {
	return &Paths{
		LiveDir:      liveDir,
		StaticRoot:   filepath.Join(liveDir, "static"),
		Manifest:     filepath.Join(liveDir, ".clean"),
		Marker:       filepath.Join(liveDir, "NIXOS"),
		Protected:    []string{"nixos"},
		NestedEnvVar: "IN_NIXOS_ENTER",
		ResolverName: "resolv.conf",
	}
}

// DefaultPaths returns the default paths for setup-etc.
// Paths can be overridden with environment variables:
// - SETUP_ETC_LIVE_DIR: Override the live directory
func DefaultPaths() *Paths {
	liveDir := os.Getenv(EnvLiveDir)
	if liveDir == "" {
		liveDir = DefaultLiveDir
	}
	return PathsFor(liveDir)
}

// Rebase moves the live directory, carrying along every location that still
// has its default value under the old live directory.
func (p *Paths) Rebase(liveDir string) {
	def := PathsFor(p.LiveDir)
	next := PathsFor(liveDir)

	if p.StaticRoot == def.StaticRoot {
		p.StaticRoot = next.StaticRoot
	}
	if p.Manifest == def.Manifest {
		p.Manifest = next.Manifest
	}
	if p.Marker == def.Marker {
		p.Marker = next.Marker
	}
	p.LiveDir = liveDir
}

// IsProtected reports whether a top-level live entry must never be touched.
func (p *Paths) IsProtected(name string) bool {
	for _, protected := range p.Protected {
		if protected == name {
			return true
		}
	}
	return false
}

// Validate checks that every location is absolute.
func (p *Paths) Validate() error {
	locations := []struct {
		name  string
		value string
	}{
		{"live_dir", p.LiveDir},
		{"static_root", p.StaticRoot},
		{"manifest", p.Manifest},
		{"marker", p.Marker},
	}

	for _, loc := range locations {
		if loc.value == "" {
			return fmt.Errorf("%s is empty", loc.name)
		}
		if !filepath.IsAbs(loc.value) {
			return fmt.Errorf("%s must be absolute, got %q", loc.name, loc.value)
		}
	}
	return nil
}
