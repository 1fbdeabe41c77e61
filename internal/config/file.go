package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a config file. Unset fields keep the
// value they already have.
type fileConfig struct {
	LiveDir      *string  `toml:"live_dir" yaml:"live_dir"`
	StaticRoot   *string  `toml:"static_root" yaml:"static_root"`
	Manifest     *string  `toml:"manifest" yaml:"manifest"`
	Marker       *string  `toml:"marker" yaml:"marker"`
	Protected    []string `toml:"protected" yaml:"protected"`
	NestedEnvVar *string  `toml:"nested_env_var" yaml:"nested_env_var"`
	ResolverName *string  `toml:"resolver_name" yaml:"resolver_name"`
}

// Load applies the config file at path on top of base and validates the result.
func Load(path string, base *Paths) (*Paths, error) {
	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := decodeTOML(path, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := decodeYAML(path, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}

	out := *base
	out.Protected = append([]string{}, base.Protected...)

	if raw.LiveDir != nil {
		out.Rebase(strings.TrimSpace(*raw.LiveDir))
	}
	if raw.StaticRoot != nil {
		out.StaticRoot = strings.TrimSpace(*raw.StaticRoot)
	}
	if raw.Manifest != nil {
		out.Manifest = strings.TrimSpace(*raw.Manifest)
	}
	if raw.Marker != nil {
		out.Marker = strings.TrimSpace(*raw.Marker)
	}
	if raw.Protected != nil {
		out.Protected = raw.Protected
	}
	if raw.NestedEnvVar != nil {
		out.NestedEnvVar = strings.TrimSpace(*raw.NestedEnvVar)
	}
	if raw.ResolverName != nil {
		out.ResolverName = strings.TrimSpace(*raw.ResolverName)
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &out, nil
}

func decodeTOML(path string, out *fileConfig) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func decodeYAML(path string, out *fileConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
