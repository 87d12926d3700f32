package aggregate

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/period"
)

// Writer finalizes buckets and writes their reports, plus their state when
// a store is configured.
type Writer struct {
	Dir       string
	Strategy  period.Strategy
	Finalizer Finalizer
	Store     *StateStore
}

// Write persists b. It returns the report path, or "" when b is empty and
// nothing was written.
func (w Writer) Write(b *Bucket) (string, error) {
	paths, err := w.WriteAll([]*Bucket{b})
	if err != nil || len(paths) == 0 {
		return "", err
	}
	return paths[0], nil
}

type staged struct {
	tmp  string
	path string
}

// WriteAll persists buckets as one unit: every report and state file is
// staged to a temp file before any of them replaces its target, so a
// failure while staging leaves all targets untouched. It returns the report
// paths written, skipping empty buckets.
func (w Writer) WriteAll(buckets []*Bucket) ([]string, error) {
	var (
		files   []staged
		reports []string
	)
	discard := func() {
		for _, f := range files {
			os.Remove(f.tmp) //nolint:errcheck
		}
	}

	for _, b := range buckets {
		report, ok := w.Finalizer.Finalize(b)
		if !ok {
			continue
		}
		path := filepath.Join(w.Dir, w.Strategy.FileName(b.Key))
		tmp, err := stageJSON(path, report)
		if err != nil {
			discard()
			return nil, err
		}
		files = append(files, staged{tmp: tmp, path: path})
		reports = append(reports, path)

		if w.Store != nil {
			statePath := w.Store.path(b.Key)
			tmp, err := stageJSON(statePath, w.Store.state(b))
			if err != nil {
				discard()
				return nil, err
			}
			files = append(files, staged{tmp: tmp, path: statePath})
		}
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			for _, rest := range files[i:] {
				os.Remove(rest.tmp) //nolint:errcheck
			}
			return nil, eris.Wrapf(err, "aggregate: rename %s", f.path)
		}
	}
	return reports, nil
}
