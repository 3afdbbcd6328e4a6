package config

import (
	"os"
	"path/filepath"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for a
// project marker.
const maxUpwardSearchLevels = 10

// rootMarkers identify a project root, in priority order within a directory.
var rootMarkers = []string{"deptcluster.yaml", "deptcluster.yml", ".here", "go.mod", ".git"}

func hasMarker(dir string) bool {
	for _, name := range rootMarkers {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRootUpward searches upward from startDir for a root marker.
// Returns empty string if none is found within maxUpwardSearchLevels.
func FindProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if hasMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResolveProjectRoot returns the absolute project root. An explicit directory
// wins; otherwise the upward search from the working directory is used, and
// the working directory itself when no marker is found.
func ResolveProjectRoot(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root := FindProjectRootUpward(cwd); root != "" {
		return root, nil
	}
	return cwd, nil
}
