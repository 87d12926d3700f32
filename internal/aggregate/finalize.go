package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/internal/period"
)

// TopN is the maximum length of the distribution chart and of each
// weekday's entity list.
const TopN = 10

// PercentBasis selects the denominator of distribution percentages.
type PercentBasis string

const (
	// BasisTotal divides by the bucket's total news count.
	BasisTotal PercentBasis = "total"
	// BasisTop divides by the summed counts of the kept top entries.
	BasisTop PercentBasis = "top"
)

// ParsePercentBasis validates a configured basis.
func ParsePercentBasis(s string) (PercentBasis, error) {
	switch b := PercentBasis(strings.ToLower(strings.TrimSpace(s))); b {
	case BasisTotal, BasisTop:
		return b, nil
	default:
		return "", eris.Errorf("aggregate: unknown percent basis %q", s)
	}
}

// Finalizer renders buckets as report documents.
type Finalizer struct {
	// Kind is "daily" or "weekly" and selects the date and geo code fields.
	Kind  string
	Basis PercentBasis
	// Entities adds weeklyEntityData.
	Entities bool
	// MergeEntries sums entries sharing a title and URL before ranking.
	MergeEntries bool
	// CountryName expands an alpha-2 code.
	CountryName func(code string) string
}

// Finalize builds the report for b. It returns false for an empty bucket.
func (f Finalizer) Finalize(b *Bucket) (model.Report, bool) {
	if b == nil || b.Empty() {
		return model.Report{}, false
	}
	r := model.Report{
		TotalNews:         b.TotalNews,
		TotalPublishers:   b.TotalPublishers(),
		TotalEvents:       b.TotalEvents(),
		DistributionChart: f.distribution(b),
		GeoMapChart:       f.geo(b),
	}
	if f.Kind == "daily" {
		r.Date = period.Daily{}.DisplayDate(b.Key)
	} else {
		r.StartDate = period.FormatDate(b.Start)
		r.EndDate = period.FormatDate(b.End)
	}
	if f.Entities {
		r.WeeklyEntityData = entityDays(b)
	}
	return r, true
}

func (f Finalizer) distribution(b *Bucket) []model.DistributionEntry {
	ranked := append([]Entry(nil), b.Entries...)
	if f.MergeEntries {
		ranked = mergeEntries(ranked)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ArticleCount > ranked[j].ArticleCount
	})
	if len(ranked) > TopN {
		ranked = ranked[:TopN]
	}

	denom := b.TotalNews
	if f.Basis == BasisTop {
		denom = 0
		for _, e := range ranked {
			denom += e.ArticleCount
		}
	}

	out := make([]model.DistributionEntry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, model.DistributionEntry{
			Title:        e.Title,
			ArticleCount: e.ArticleCount,
			Percentage:   Percentage(e.ArticleCount, denom),
			DateTimePub:  e.DateTimePub,
			URL:          e.URL,
		})
	}
	return out
}

// mergeEntries sums the article counts of entries with the same title and
// URL. The first occurrence keeps its position and publication time.
func mergeEntries(entries []Entry) []Entry {
	type key struct{ title, url string }
	pos := make(map[key]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := key{e.Title, e.URL}
		if i, ok := pos[k]; ok {
			out[i].ArticleCount += e.ArticleCount
			continue
		}
		pos[k] = len(out)
		out = append(out, e)
	}
	return out
}

// Percentage formats count/denom as a two-decimal percent string.
func Percentage(count, denom int) string {
	if denom <= 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(denom)*100)
}

func (f Finalizer) geo(b *Bucket) []model.GeoEntry {
	codes := make([]string, 0, len(b.Geo))
	for code := range b.Geo {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ci, cj := b.Geo[codes[i]], b.Geo[codes[j]]
		if ci != cj {
			return ci > cj
		}
		return codes[i] < codes[j]
	})

	out := make([]model.GeoEntry, 0, len(codes))
	for _, code := range codes {
		g := model.GeoEntry{Country: f.name(code), ArticleCount: b.Geo[code]}
		if f.Kind == "daily" {
			g.Code = strings.ToUpper(code)
		} else {
			g.CountryCode = strings.ToLower(code)
		}
		out = append(out, g)
	}
	return out
}

func (f Finalizer) name(code string) string {
	if f.CountryName == nil {
		return code
	}
	return f.CountryName(code)
}

func entityDays(b *Bucket) []model.EntityDay {
	days := make([]int, 0, len(b.Entities))
	for d, m := range b.Entities {
		if len(m) > 0 {
			days = append(days, d)
		}
	}
	sort.Ints(days)

	out := make([]model.EntityDay, 0, len(days))
	for _, d := range days {
		out = append(out, model.EntityDay{Day: d, Data: TopEntities(b.Entities[d], TopN)})
	}
	return out
}

// TopEntities ranks counts by frequency, then name, and keeps the first n.
func TopEntities(counts map[string]int, n int) []model.EntityCount {
	out := make([]model.EntityCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, model.EntityCount{Title: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
