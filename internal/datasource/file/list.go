package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// List returns the regular files directly inside dir whose names match the
// filepath.Match pattern, as full paths in lexicographic name order. An empty
// pattern matches every file. Subdirectories are not descended into.
func List(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			ok, err := filepath.Match(pattern, e.Name())
			if err != nil {
				return nil, fmt.Errorf("list %s: pattern %q: %w", dir, pattern, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	// os.ReadDir already sorts by file name.
	return out, nil
}
