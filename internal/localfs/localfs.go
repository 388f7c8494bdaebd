// Package localfs handles the local side of downloads: destination
// directories and collision-free target names.
package localfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsHiddenName reports whether a file name is hidden by convention.
// "." and ".." are not hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// EnsureDir makes sure the download destination exists and is a
// directory.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%q ist kein Verzeichnis", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// UniquePath returns a path in dir for name that does not collide with
// an existing file. Collisions get a numeric suffix before the
// extension: "vertrag.pdf" becomes "vertrag (1).pdf".
func UniquePath(dir, name string) string {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		target = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return target
		}
	}
}
