package country

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// UnmatchedLog collects unresolved source identifiers and appends the new
// ones to a text file, one per line.
type UnmatchedLog struct {
	path string

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewUnmatchedLog returns a log writing to path. An empty path discards
// everything.
func NewUnmatchedLog(path string) *UnmatchedLog {
	return &UnmatchedLog{path: path, pending: make(map[string]struct{})}
}

// Add queues id for the next Flush.
func (u *UnmatchedLog) Add(id string) {
	id = strings.TrimSpace(id)
	if u == nil || id == "" {
		return
	}
	u.mu.Lock()
	u.pending[id] = struct{}{}
	u.mu.Unlock()
}

// Len returns the number of queued identifiers.
func (u *UnmatchedLog) Len() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// Flush appends queued identifiers not already in the file, sorted, and
// clears the queue. It returns how many lines were written.
func (u *UnmatchedLog) Flush() (int, error) {
	if u == nil || u.path == "" {
		return 0, nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.pending) == 0 {
		return 0, nil
	}

	existing, err := readLines(u.path)
	if err != nil {
		return 0, err
	}
	var fresh []string
	for id := range u.pending {
		if _, ok := existing[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)

	if len(fresh) > 0 {
		if dir := filepath.Dir(u.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return 0, eris.Wrapf(err, "country: create dir %s", dir)
			}
		}
		f, err := os.OpenFile(u.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, eris.Wrapf(err, "country: open unmatched log %s", u.path)
		}
		w := bufio.NewWriter(f)
		for _, id := range fresh {
			w.WriteString(id + "\n") //nolint:errcheck
		}
		if err := w.Flush(); err != nil {
			f.Close() //nolint:errcheck
			return 0, eris.Wrapf(err, "country: write unmatched log %s", u.path)
		}
		if err := f.Close(); err != nil {
			return 0, eris.Wrapf(err, "country: close unmatched log %s", u.path)
		}
	}
	clear(u.pending)
	return len(fresh), nil
}

func readLines(path string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "country: open unmatched log %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out[line] = struct{}{}
		}
	}
	return out, eris.Wrapf(sc.Err(), "country: read unmatched log %s", path)
}
