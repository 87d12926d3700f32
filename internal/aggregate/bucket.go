// Package aggregate folds annotated articles into period buckets and turns
// buckets into report documents.
package aggregate

import (
	"maps"
	"time"
)

// Record is one article ready to be folded, already annotated with its
// bucket-independent facts.
type Record struct {
	// Digest identifies the input file the article came from.
	Digest       string
	EventURI     string
	Title        string
	URL          string
	DateTimePub  string
	Published    time.Time
	ArticleCount int
	Publisher    string
	Code         string
	// Entities holds each distinct entity name once. Nil when tallying is off.
	Entities []string
}

// Entry is a candidate row of the distribution chart.
type Entry struct {
	Title        string `json:"title"`
	ArticleCount int    `json:"articleCount"`
	DateTimePub  string `json:"dateTimePub"`
	URL          string `json:"url"`
}

// Bucket is the running state of one period.
type Bucket struct {
	Key        string
	Start      time.Time
	End        time.Time
	TotalNews  int
	Publishers map[string]struct{}
	// Events holds the URIs already counted in TotalEvents.
	Events  map[string]struct{}
	Entries []Entry
	Geo     map[string]int
	// Entities maps weekday (Monday=1) to entity name to article count.
	Entities map[int]map[string]int
	// Digests lists every input file folded into the bucket.
	Digests map[string]struct{}

	// prior holds the digests loaded from persisted state.
	prior map[string]struct{}
}

// NewBucket returns an empty bucket.
func NewBucket(key string) *Bucket {
	return &Bucket{
		Key:        key,
		Publishers: make(map[string]struct{}),
		Events:     make(map[string]struct{}),
		Geo:        make(map[string]int),
		Entities:   make(map[int]map[string]int),
		Digests:    make(map[string]struct{}),
		prior:      make(map[string]struct{}),
	}
}

// TotalEvents is the number of distinct events counted.
func (b *Bucket) TotalEvents() int { return len(b.Events) }

// TotalPublishers is the number of distinct publisher titles.
func (b *Bucket) TotalPublishers() int { return len(b.Publishers) }

// HasFolded reports whether articles from digest were folded by an earlier
// run.
func (b *Bucket) HasFolded(digest string) bool {
	_, ok := b.prior[digest]
	return ok
}

// Empty reports whether the bucket would produce no report.
func (b *Bucket) Empty() bool { return b.TotalNews == 0 }

func (b *Bucket) extend(start, end time.Time) {
	if b.Start.IsZero() || start.Before(b.Start) {
		b.Start = start
	}
	if b.End.IsZero() || end.After(b.End) {
		b.End = end
	}
}

func (b *Bucket) add(r Record, weekday int) {
	b.TotalNews += r.ArticleCount
	if r.Publisher != "" {
		b.Publishers[r.Publisher] = struct{}{}
	}
	if r.EventURI != "" {
		b.Events[r.EventURI] = struct{}{}
	}
	b.Entries = append(b.Entries, Entry{
		Title:        r.Title,
		ArticleCount: r.ArticleCount,
		DateTimePub:  r.DateTimePub,
		URL:          r.URL,
	})
	b.Geo[r.Code] += r.ArticleCount
	if len(r.Entities) > 0 {
		day := b.Entities[weekday]
		if day == nil {
			day = make(map[string]int)
			b.Entities[weekday] = day
		}
		for _, name := range r.Entities {
			day[name]++
		}
	}
	if r.Digest != "" {
		b.Digests[r.Digest] = struct{}{}
	}
}

func (b *Bucket) clone() *Bucket {
	c := *b
	c.Publishers = maps.Clone(b.Publishers)
	c.Events = maps.Clone(b.Events)
	c.Entries = append([]Entry(nil), b.Entries...)
	c.Geo = maps.Clone(b.Geo)
	c.Entities = make(map[int]map[string]int, len(b.Entities))
	for d, m := range b.Entities {
		c.Entities[d] = maps.Clone(m)
	}
	c.Digests = maps.Clone(b.Digests)
	c.prior = maps.Clone(b.prior)
	return &c
}
