package aggregate

import (
	"sort"

	"github.com/sells-group/coverage-cli/internal/period"
)

// Aggregator owns every bucket of one report kind for a run. Folds are
// grouped per input file between Begin and Commit or Rollback.
type Aggregator struct {
	strategy period.Strategy
	store    *StateStore

	buckets map[string]*Bucket

	inTxn bool
	// touched holds the pre-transaction copy of each modified bucket.
	touched map[string]*Bucket
	// created lists buckets first materialized inside the transaction.
	created map[string]struct{}
}

// New returns an Aggregator. A non-nil store seeds each bucket from its
// persisted state the first time it is touched.
func New(strategy period.Strategy, store *StateStore) *Aggregator {
	return &Aggregator{
		strategy: strategy,
		store:    store,
		buckets:  make(map[string]*Bucket),
	}
}

// Strategy returns the bucketing strategy.
func (a *Aggregator) Strategy() period.Strategy { return a.strategy }

// Begin starts a per-file transaction.
func (a *Aggregator) Begin() {
	a.inTxn = true
	a.touched = make(map[string]*Bucket)
	a.created = make(map[string]struct{})
}

// Fold adds r to its bucket. It returns false without changing anything
// when the bucket already holds r's input file from an earlier run.
func (a *Aggregator) Fold(r Record) (bool, error) {
	p := a.strategy.Assign(r.Published)
	b, err := a.bucket(p.Key)
	if err != nil {
		return false, err
	}
	if r.Digest != "" && b.HasFolded(r.Digest) {
		return false, nil
	}
	if a.inTxn {
		if _, ok := a.touched[b.Key]; !ok {
			a.touched[b.Key] = b.clone()
		}
	}
	b.extend(p.Start, p.End)
	b.add(r, period.Weekday(r.Published))
	return true, nil
}

// AlreadyFolded reports whether r's bucket holds r's input file from an
// earlier run. It may load the bucket's persisted state.
func (a *Aggregator) AlreadyFolded(r Record) (bool, error) {
	if r.Digest == "" {
		return false, nil
	}
	b, err := a.bucket(a.strategy.Assign(r.Published).Key)
	if err != nil {
		return false, err
	}
	return b.HasFolded(r.Digest), nil
}

func (a *Aggregator) bucket(key string) (*Bucket, error) {
	if b, ok := a.buckets[key]; ok {
		return b, nil
	}
	b := NewBucket(key)
	if a.store != nil {
		loaded, err := a.store.Load(key)
		if err != nil {
			return nil, err
		}
		if loaded != nil {
			b = loaded
		}
	}
	a.buckets[key] = b
	if a.inTxn {
		a.created[key] = struct{}{}
	}
	return b, nil
}

// Touched returns the keys of buckets modified in the current transaction,
// sorted.
func (a *Aggregator) Touched() []string {
	keys := make([]string, 0, len(a.touched))
	for k := range a.touched {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Commit ends the transaction keeping its folds.
func (a *Aggregator) Commit() {
	a.inTxn = false
	a.touched, a.created = nil, nil
}

// Rollback ends the transaction discarding its folds.
func (a *Aggregator) Rollback() {
	for k, snap := range a.touched {
		a.buckets[k] = snap
	}
	for k := range a.created {
		delete(a.buckets, k)
	}
	a.Commit()
}

// Bucket returns the bucket for key, or nil.
func (a *Aggregator) Bucket(key string) *Bucket {
	return a.buckets[key]
}

// Keys returns every bucket key, sorted.
func (a *Aggregator) Keys() []string {
	keys := make([]string, 0, len(a.buckets))
	for k := range a.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
