package workspace

import (
	"os/exec"
	"strings"
)

// IgnoredPaths queries the VCS once for every ignored path under dir by
// shelling out to git rather than reimplementing gitignore matching. A
// non-git directory (or any other git failure) yields an empty,
// non-fatal result.
func IgnoredPaths(dir string) []string {
	cmd := exec.Command("git", "ls-files", "--others", "--ignored", "--exclude-standard", "--directory")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

// IgnoreSet supports quick membership queries against a snapshot of
// IgnoredPaths results.
type IgnoreSet struct {
	prefixes []string
}

// NewIgnoreSet builds a set from IgnoredPaths output.
func NewIgnoreSet(paths []string) *IgnoreSet {
	return &IgnoreSet{prefixes: paths}
}

// Matches reports whether relPath falls under any ignored directory entry.
func (s *IgnoreSet) Matches(relPath string) bool {
	for _, p := range s.prefixes {
		if relPath == strings.TrimSuffix(p, "/") || strings.HasPrefix(relPath, p) {
			return true
		}
	}
	return false
}
