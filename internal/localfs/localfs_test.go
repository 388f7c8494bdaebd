package localfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsHiddenName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{".emptyFolderPlaceholder", true},
		{".config", true},
		{"vertrag.pdf", false},
		{".", false},
		{"..", false},
	}
	for _, tt := range tests {
		if got := IsHiddenName(tt.name); got != tt.want {
			t.Errorf("IsHiddenName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads", "2026")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	// Second call on the existing directory succeeds.
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir on existing dir: %v", err)
	}

	file := filepath.Join(t.TempDir(), "datei")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(file); err == nil {
		t.Error("EnsureDir must refuse a path that is a file")
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	first := UniquePath(dir, "vertrag.pdf")
	if first != filepath.Join(dir, "vertrag.pdf") {
		t.Errorf("first = %q", first)
	}
	if err := os.WriteFile(first, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	second := UniquePath(dir, "vertrag.pdf")
	if second != filepath.Join(dir, "vertrag (1).pdf") {
		t.Errorf("second = %q", second)
	}
	if err := os.WriteFile(second, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	third := UniquePath(dir, "vertrag.pdf")
	if third != filepath.Join(dir, "vertrag (2).pdf") {
		t.Errorf("third = %q", third)
	}
}
