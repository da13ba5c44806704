package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// ProgramNotFoundError is returned when a scenario references a program
// manifest that doesn't exist.
type ProgramNotFoundError struct {
	Scenario     string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references program %s which does not exist", e.Scenario, e.ResolvedPath)
}

// DiscoverScenarios returns every .yaml or .yml file under dir, sorted by
// path. Files whose base name contains filter are kept; an empty filter
// keeps all.
func DiscoverScenarios(dir, filter string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" && !strings.Contains(filepath.Base(path), filter) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	slices.Sort(paths)
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}
