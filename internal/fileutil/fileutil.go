package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates the directory (and parents) when missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// RemoveQuietly deletes a file or directory tree, ignoring not-exist errors.
// Used for scratch cleanup where a missing artifact is already the goal.
func RemoveQuietly(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	_ = os.RemoveAll(path)
}

// ItemScratchDir returns the per-item working directory under the staging
// root. Every local artifact for an item lives inside it, so removing the
// directory reclaims all scratch space the item ever used.
func ItemScratchDir(stagingDir string, itemID int64) string {
	return filepath.Join(stagingDir, fmt.Sprintf("item-%d", itemID))
}

// SanitizeBase converts a remote path into a name safe to use as a local
// file name: the base name with path separators and control bytes replaced.
func SanitizeBase(remotePath string) string {
	base := filepath.Base(strings.ReplaceAll(remotePath, "\\", "/"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "artifact"
	}
	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "artifact"
	}
	return cleaned
}

// FileSize returns the size of path, or -1 when it cannot be determined.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
