// Package discovery locates Joomla installations by their marker file.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MarkerFile identifies a directory as a Joomla installation.
const MarkerFile = "configuration.php"

// DefaultRoot is the directory tree searched for installations.
const DefaultRoot = "/var/www"

// DefaultMaxDepth bounds the search below the root.
const DefaultMaxDepth = 3

// Installation is one discovered Joomla install.
type Installation struct {
	// Dir is the directory containing the marker file.
	Dir string
	// Domain is the best-effort site name, derived from the directory
	// immediately below the search root.
	Domain string
}

// Find walks root to maxDepth looking for the marker file. The result is
// sorted by directory and may be empty; an absent root is not an error.
func Find(root string, maxDepth int) ([]Installation, error) {
	if root == "" {
		root = DefaultRoot
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var found []Installation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it rather than failing discovery.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() == MarkerFile {
			dir := filepath.Dir(path)
			found = append(found, Installation{
				Dir:    dir,
				Domain: siteDomain(root, dir),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Dir < found[j].Dir })
	return found, nil
}

// siteDomain extracts the first path element under root as the site name.
func siteDomain(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(dir)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	return parts[0]
}
