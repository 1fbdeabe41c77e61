package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/setupetc/internal/fsops"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "empty", data: "", want: []string{}},
		{name: "single line", data: "passwd\n", want: []string{"passwd"}},
		{name: "no trailing newline", data: "passwd\ngroup", want: []string{"passwd", "group"}},
		{name: "blank line kept literally", data: "passwd\n\ngroup\n", want: []string{"passwd", "", "group"}},
		{name: "nested name", data: "ssh/ssh_host_key\n", want: []string{"ssh/ssh_host_key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.data))
			if diff := cmp.Diff(tt.want, got.Names); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.data, diff)
			}
		})
	}
}

func TestManifest_Bytes(t *testing.T) {
	m := New("passwd", "group")
	if got := string(m.Bytes()); got != "passwd\ngroup\n" {
		t.Errorf("Bytes() = %q", got)
	}
	if got := string(New().Bytes()); got != "" {
		t.Errorf("empty manifest Bytes() = %q, want empty", got)
	}
	if set := m.Set(); !set["group"] || set["shadow"] {
		t.Errorf("Set() = %v", set)
	}
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(fsops.NewRealFS(), filepath.Join(dir, ".clean"))

	m, err := store.Load()
	if err != nil {
		t.Fatalf("Load of a missing manifest should not fail: %v", err)
	}
	if len(m.Names) != 0 {
		t.Errorf("missing manifest should be empty, got %v", m.Names)
	}

	if err := store.Save(New("sudoers", "shadow")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if string(data) != "sudoers\nshadow\n" {
		t.Errorf("manifest on disk = %q", data)
	}

	m, err = store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"sudoers", "shadow"}, m.Names); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile(t *testing.T) {
	live := t.TempDir()
	fs := fsops.NewRealFS()

	for _, name := range []string{"sudoers", "shadow", "group"} {
		if err := os.WriteFile(filepath.Join(live, name), []byte(name), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	t.Run("keeps existing names and drops vanished ones", func(t *testing.T) {
		got := Reconcile(fs, live, New("sudoers", "deleted-by-admin", "shadow"), nil)

		if diff := cmp.Diff([]string{"sudoers", "shadow"}, got.Kept.Names); diff != "" {
			t.Errorf("kept mismatch (-want +got):\n%s", diff)
		}
		want := []Dropped{{Name: "deleted-by-admin", Path: filepath.Join(live, "deleted-by-admin")}}
		if diff := cmp.Diff(want, got.Dropped); diff != "" {
			t.Errorf("dropped mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("appends new names after previous ones without duplicates", func(t *testing.T) {
		got := Reconcile(fs, live, New("shadow"), []string{"group", "shadow", "sudoers"})

		if diff := cmp.Diff([]string{"shadow", "group", "sudoers"}, got.Kept.Names); diff != "" {
			t.Errorf("kept mismatch (-want +got):\n%s", diff)
		}
		if len(got.Dropped) != 0 {
			t.Errorf("nothing should be dropped, got %v", got.Dropped)
		}
	})

	t.Run("duplicate vanished names are reported once", func(t *testing.T) {
		got := Reconcile(fs, live, New("gone", "gone"), nil)
		if len(got.Dropped) != 1 {
			t.Errorf("expected exactly one drop, got %v", got.Dropped)
		}
	})

	t.Run("invalid names are dropped", func(t *testing.T) {
		got := Reconcile(fs, live, New("", "../escape", "sudoers"), nil)

		if diff := cmp.Diff([]string{"sudoers"}, got.Kept.Names); diff != "" {
			t.Errorf("kept mismatch (-want +got):\n%s", diff)
		}
		if len(got.Dropped) != 2 {
			t.Errorf("expected two drops, got %v", got.Dropped)
		}
	})

	t.Run("nothing is deleted from disk", func(t *testing.T) {
		_ = Reconcile(fs, live, New(), nil)
		for _, name := range []string{"sudoers", "shadow", "group"} {
			if _, err := os.Lstat(filepath.Join(live, name)); err != nil {
				t.Errorf("%s should still exist: %v", name, err)
			}
		}
	})
}
