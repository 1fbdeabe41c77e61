package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"--help"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "setup-etc") {
		t.Error("expected help to contain 'setup-etc'")
	}
	for _, section := range []string{"Inspection:", "CLI & Tooling:", "Flags:"} {
		if !strings.Contains(output, section) {
			t.Errorf("expected help to contain %q", section)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	resetFlags(t)
	SetVersion("1.2.3")
	rootCmd.SetArgs([]string{"--version"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "1.2.3" {
		t.Errorf("version output = %q, want %q", got, "1.2.3")
	}
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	SetVersion("4.5.6")
	rootCmd.SetArgs([]string{"version"})
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "4.5.6" {
		t.Errorf("version output = %q, want %q", got, "4.5.6")
	}
}

func TestRootCommand_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", []string{}},
		{"two arguments", []string{"/nix/store/a-etc/etc", "/nix/store/b-etc/etc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			rootCmd.SetArgs(tt.args)
			var buf bytes.Buffer
			rootCmd.SetErr(&buf)

			err := rootCmd.Execute()
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected ErrUsage, got %v", err)
			}
			if !strings.Contains(err.Error(), "<etc-path>") {
				t.Errorf("usage error should show the expected argument, got %q", err)
			}
		})
	}
}

func TestSetVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version keeps the previous one", "", "1.2.3"},
		{"dev version", "dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			if rootCmd.Version != tt.want {
				t.Errorf("SetVersion(%q) = %q, want %q", tt.version, rootCmd.Version, tt.want)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{"status", "version", "completion"}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			found := false
			for _, cmd := range rootCmd.Commands() {
				if cmd.Name() == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected subcommand %q to be registered", name)
			}
		})
	}
}
