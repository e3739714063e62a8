package diagram

import (
	"os"
	"path/filepath"
)

// MaterializePaths joins every resolved path with rootDir, in discovery order,
// and creates the directories unless dryRun is set. Existing directories are
// not an error. The first other failure aborts with a DirectoryCreationError;
// directories created before it are left in place.
func MaterializePaths(rp *ResolvedPaths, rootDir string, dryRun bool) ([]string, error) {
	out := make([]string, 0, rp.Len())
	for _, id := range rp.Order {
		dir := filepath.Join(rootDir, rp.Paths[id])
		if !dryRun {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return out, &DirectoryCreationError{Path: dir, Err: err}
			}
		}
		out = append(out, dir)
	}
	return out, nil
}
