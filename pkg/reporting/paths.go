package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunDir names the output directory of a run under base, after its window.
func RunDir(base string, start, end time.Time) string {
	if base == "" {
		base = "results"
	}
	return filepath.Join(base, fmt.Sprintf("rotation_%s_%s", start.Format("20060102"), end.Format("20060102")))
}

// EnsureDirectoryExists creates the parent directory of path if it doesn't exist
func EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
