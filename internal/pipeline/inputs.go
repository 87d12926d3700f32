package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ListInputs returns the input files of a run in processing order. With
// file set it returns that single path, resolved against dir when relative
// and present there. Otherwise it returns every .json file in dir sorted by
// name.
func ListInputs(dir, file string) ([]string, error) {
	if file != "" {
		if !strings.HasSuffix(strings.ToLower(file), ".json") {
			return nil, eris.Errorf("pipeline: input %q is not a .json file", file)
		}
		if !filepath.IsAbs(file) && dir != "" {
			joined := filepath.Join(dir, file)
			if _, err := os.Stat(joined); err == nil {
				return []string{joined}, nil
			}
		}
		return []string{file}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list input dir %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
