package sourceparser

import (
	"os"
	"path/filepath"
)

// ResolveIncludePath resolves an incsrc/include path: an absolute
// existing path wins outright; otherwise base_dir/raw, then each
// include_path/raw in order, first existing match wins. Returns "", false
// if nothing resolves.
func ResolveIncludePath(raw, baseDir string, includePaths []string) (string, bool) {
	if filepath.IsAbs(raw) {
		if exists(raw) {
			return raw, true
		}
	}

	candidate := filepath.Join(baseDir, raw)
	if exists(candidate) {
		return candidate, true
	}

	for _, dir := range includePaths {
		candidate := filepath.Join(dir, raw)
		if exists(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
