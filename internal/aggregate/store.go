package aggregate

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/period"
)

// StateStore persists bucket state next to the reports so later runs can
// merge into a bucket instead of rebuilding it.
type StateStore struct {
	dir string
}

// NewStateStore returns a store rooted at dir.
func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

// Dir returns the state directory.
func (s *StateStore) Dir() string { return s.dir }

type bucketState struct {
	Key        string                    `json:"key"`
	StartDate  string                    `json:"startDate,omitempty"`
	EndDate    string                    `json:"endDate,omitempty"`
	TotalNews  int                       `json:"totalNews"`
	Publishers []string                  `json:"publishers"`
	Events     []string                  `json:"events"`
	Entries    []Entry                   `json:"entries"`
	Geo        map[string]int            `json:"geo"`
	Entities   map[string]map[string]int `json:"entities,omitempty"`
	Digests    []string                  `json:"digests"`
}

func (s *StateStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Load returns the persisted bucket for key, or nil when none exists.
func (s *StateStore) Load(key string) (*Bucket, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read state %s", key)
	}
	var st bucketState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, eris.Wrapf(err, "aggregate: decode state %s", key)
	}

	b := NewBucket(key)
	if b.Start, err = parseDate(st.StartDate); err != nil {
		return nil, eris.Wrapf(err, "aggregate: state %s startDate", key)
	}
	if b.End, err = parseDate(st.EndDate); err != nil {
		return nil, eris.Wrapf(err, "aggregate: state %s endDate", key)
	}
	b.TotalNews = st.TotalNews
	for _, p := range st.Publishers {
		b.Publishers[p] = struct{}{}
	}
	for _, e := range st.Events {
		b.Events[e] = struct{}{}
	}
	b.Entries = st.Entries
	for code, n := range st.Geo {
		b.Geo[code] = n
	}
	for day, m := range st.Entities {
		d, err := strconv.Atoi(day)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: state %s weekday %q", key, day)
		}
		b.Entities[d] = m
	}
	for _, d := range st.Digests {
		b.Digests[d] = struct{}{}
		b.prior[d] = struct{}{}
	}
	return b, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// Save writes b's state atomically.
func (s *StateStore) Save(b *Bucket) error {
	return writeJSON(s.path(b.Key), s.state(b))
}

func (s *StateStore) state(b *Bucket) bucketState {
	st := bucketState{
		Key:        b.Key,
		TotalNews:  b.TotalNews,
		Publishers: sortedKeys(b.Publishers),
		Events:     sortedKeys(b.Events),
		Entries:    b.Entries,
		Geo:        b.Geo,
		Digests:    sortedKeys(b.Digests),
	}
	if st.Entries == nil {
		st.Entries = []Entry{}
	}
	if !b.Start.IsZero() {
		st.StartDate = period.FormatDate(b.Start)
	}
	if !b.End.IsZero() {
		st.EndDate = period.FormatDate(b.End)
	}
	if len(b.Entities) > 0 {
		st.Entities = make(map[string]map[string]int, len(b.Entities))
		for d, m := range b.Entities {
			st.Entities[strconv.Itoa(d)] = m
		}
	}
	return st
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// writeJSON replaces path with the JSON encoding of v through a temp file
// in the same directory.
func writeJSON(path string, v any) error {
	tmp, err := stageJSON(path, v)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return eris.Wrapf(err, "aggregate: rename %s", path)
	}
	return nil
}

// stageJSON encodes v with two-space indentation and unescaped HTML into a
// synced temp file next to path and returns the temp file's name. The caller
// renames or removes it. An existing directory at path is an error.
func stageJSON(path string, v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", eris.Wrapf(err, "aggregate: encode %s", path)
	}

	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return "", eris.Errorf("aggregate: %s is a directory", path)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "aggregate: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", eris.Wrapf(err, "aggregate: create temp for %s", path)
	}
	tmpName := tmp.Name()

	fail := func(err error, op string) (string, error) {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return "", eris.Wrapf(err, "aggregate: %s %s", op, path)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fail(err, "write")
	}
	if err := tmp.Sync(); err != nil {
		return fail(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", eris.Wrapf(err, "aggregate: close %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", eris.Wrapf(err, "aggregate: chmod %s", path)
	}
	return tmpName, nil
}
