package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coverage-cli/internal/model"
	"github.com/sells-group/coverage-cli/internal/period"
)

func names(code string) string {
	return map[string]string{"GB": "United Kingdom", "FR": "France", "JP": "Japan"}[code]
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "60.00%", Percentage(30, 50))
	assert.Equal(t, "20.00%", Percentage(10, 50))
	assert.Equal(t, "75.00%", Percentage(30, 40))
	assert.Equal(t, "33.33%", Percentage(1, 3))
	assert.Equal(t, "0.00%", Percentage(5, 0))
}

func TestParsePercentBasis(t *testing.T) {
	b, err := ParsePercentBasis("TOP")
	require.NoError(t, err)
	assert.Equal(t, BasisTop, b)
	_, err = ParsePercentBasis("median")
	assert.Error(t, err)
}

func bucketWithCounts(t *testing.T, counts ...int) *Bucket {
	t.Helper()
	a := New(period.MondayWeek{}, nil)
	for i, c := range counts {
		_, err := a.Fold(rec("2024-03-06T10:00:00Z", c, func(r *Record) {
			r.Title = fmt.Sprintf("story-%d", i)
			r.EventURI = fmt.Sprintf("eng-%d", i)
		}))
		require.NoError(t, err)
	}
	return a.Bucket("2024-03-Week1")
}

func TestFinalize_PercentBasis(t *testing.T) {
	b := bucketWithCounts(t, 30, 10)
	b.TotalNews = 50

	total, ok := Finalizer{Kind: "daily", Basis: BasisTotal}.Finalize(b)
	require.True(t, ok)
	assert.Equal(t, "60.00%", total.DistributionChart[0].Percentage)
	assert.Equal(t, "20.00%", total.DistributionChart[1].Percentage)

	top, _ := Finalizer{Kind: "weekly", Basis: BasisTop}.Finalize(b)
	assert.Equal(t, "75.00%", top.DistributionChart[0].Percentage)
	assert.Equal(t, "25.00%", top.DistributionChart[1].Percentage)
}

func TestFinalize_DistributionTopTenStable(t *testing.T) {
	b := bucketWithCounts(t, 1, 5, 5, 2, 9, 1, 1, 1, 1, 1, 1, 3)
	r, ok := Finalizer{Kind: "weekly", Basis: BasisTotal}.Finalize(b)
	require.True(t, ok)

	require.Len(t, r.DistributionChart, TopN)
	var titles []string
	for i, e := range r.DistributionChart {
		titles = append(titles, e.Title)
		if i > 0 {
			assert.GreaterOrEqual(t, r.DistributionChart[i-1].ArticleCount, e.ArticleCount)
		}
	}
	assert.Equal(t, []string{
		"story-4", "story-1", "story-2", "story-11", "story-3",
		"story-0", "story-5", "story-6", "story-7", "story-8",
	}, titles)
	assert.Equal(t, 12, r.TotalEvents)
}

func TestFinalize_GeoSumsToTotal(t *testing.T) {
	a := New(period.Daily{}, nil)
	for _, c := range []struct {
		code  string
		count int
	}{{"GB", 3}, {"FR", 5}, {"GB", 2}, {"JP", 5}, {"UN", 1}} {
		_, err := a.Fold(rec("2024-03-06T10:00:00Z", c.count, func(r *Record) { r.Code = c.code }))
		require.NoError(t, err)
	}
	b := a.Bucket("2024-03-06")

	daily, ok := Finalizer{Kind: "daily", Basis: BasisTotal, CountryName: names}.Finalize(b)
	require.True(t, ok)
	assert.Equal(t, "06-03-2024", daily.Date)
	assert.Empty(t, daily.StartDate)
	assert.Equal(t, []model.GeoEntry{
		{Country: "France", Code: "FR", ArticleCount: 5},
		{Country: "United Kingdom", Code: "GB", ArticleCount: 5},
		{Country: "Japan", Code: "JP", ArticleCount: 5},
		{Country: "", Code: "UN", ArticleCount: 1},
	}, daily.GeoMapChart)

	sum := 0
	for _, g := range daily.GeoMapChart {
		sum += g.ArticleCount
	}
	assert.Equal(t, daily.TotalNews, sum)

	weekly, _ := Finalizer{Kind: "weekly", Basis: BasisTop, CountryName: names}.Finalize(b)
	assert.Equal(t, "fr", weekly.GeoMapChart[0].CountryCode)
	assert.Empty(t, weekly.GeoMapChart[0].Code)
	assert.Equal(t, "2024-03-04", weekly.StartDate)
	assert.Equal(t, "2024-03-10", weekly.EndDate)
}

func TestFinalize_EmptyBucket(t *testing.T) {
	_, ok := Finalizer{Kind: "daily"}.Finalize(NewBucket("2024-03-06"))
	assert.False(t, ok)

	b := bucketWithCounts(t, 0, 0)
	_, ok = Finalizer{Kind: "weekly"}.Finalize(b)
	assert.False(t, ok)

	_, ok = Finalizer{}.Finalize(nil)
	assert.False(t, ok)
}

func TestFinalize_Entities(t *testing.T) {
	b := NewBucket("2024-03-Week1")
	b.TotalNews = 1
	b.Entities[5] = map[string]int{"b": 1, "a": 1, "c": 4}
	b.Entities[1] = map[string]int{}
	b.Entities[2] = map[string]int{}
	for i := 0; i < 12; i++ {
		b.Entities[2][fmt.Sprintf("e%02d", i)] = i
	}

	r, ok := Finalizer{Kind: "weekly", Entities: true}.Finalize(b)
	require.True(t, ok)
	require.Len(t, r.WeeklyEntityData, 2)
	assert.Equal(t, 2, r.WeeklyEntityData[0].Day)
	assert.Len(t, r.WeeklyEntityData[0].Data, TopN)
	assert.Equal(t, model.EntityCount{Title: "e11", Count: 11}, r.WeeklyEntityData[0].Data[0])
	assert.Equal(t, []model.EntityCount{{Title: "c", Count: 4}, {Title: "a", Count: 1}, {Title: "b", Count: 1}}, r.WeeklyEntityData[1].Data)

	r, _ = Finalizer{Kind: "weekly"}.Finalize(b)
	assert.Nil(t, r.WeeklyEntityData)
}

func TestFinalize_MergeEntries(t *testing.T) {
	a := New(period.MondayWeek{}, nil)
	for _, r := range []Record{
		rec("2024-03-05T10:00:00Z", 3, func(r *Record) { r.Title, r.URL = "Same", "https://x/1" }),
		rec("2024-03-05T11:00:00Z", 5, func(r *Record) { r.Title, r.URL = "Other", "https://x/2" }),
		rec("2024-03-06T10:00:00Z", 4, func(r *Record) { r.Title, r.URL = "Same", "https://x/1" }),
		rec("2024-03-06T12:00:00Z", 1, func(r *Record) { r.Title, r.URL = "Same", "https://x/3" }),
	} {
		_, err := a.Fold(r)
		require.NoError(t, err)
	}
	b := a.Bucket("2024-03-Week1")

	merged, ok := Finalizer{Kind: "weekly", Basis: BasisTop, MergeEntries: true}.Finalize(b)
	require.True(t, ok)
	assert.Equal(t, []model.DistributionEntry{
		{Title: "Same", ArticleCount: 7, Percentage: "53.85%", DateTimePub: "2024-03-05T10:00:00Z", URL: "https://x/1"},
		{Title: "Other", ArticleCount: 5, Percentage: "38.46%", DateTimePub: "2024-03-05T11:00:00Z", URL: "https://x/2"},
		{Title: "Same", ArticleCount: 1, Percentage: "7.69%", DateTimePub: "2024-03-06T12:00:00Z", URL: "https://x/3"},
	}, merged.DistributionChart)
	assert.Equal(t, 13, merged.TotalNews)

	split, _ := Finalizer{Kind: "weekly", Basis: BasisTop}.Finalize(b)
	assert.Len(t, split.DistributionChart, 4)
	assert.Len(t, b.Entries, 4, "merging leaves bucket state untouched")
}
