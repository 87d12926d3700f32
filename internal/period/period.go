// Package period assigns publication timestamps to report buckets.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// PublishedLayout is the dateTimePub format of the event export.
const PublishedLayout = "2006-01-02T15:04:05Z"

const dateLayout = "2006-01-02"

// Period identifies one bucket. Start and End are the Monday-start week
// bounds of the assigned instant, whatever the key convention.
type Period struct {
	Key   string
	Start time.Time
	End   time.Time
}

// Strategy maps a publication time to a bucket.
type Strategy interface {
	// Kind is the report kind, "daily" or "weekly".
	Kind() string
	Assign(t time.Time) Period
	// FileName is the report file name for a bucket key.
	FileName(key string) string
}

// ParsePublished parses a dateTimePub value.
func ParsePublished(s string) (time.Time, error) {
	t, err := time.Parse(PublishedLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "period: parse dateTimePub %q", s)
	}
	return t, nil
}

// Weekday returns t's ISO weekday, Monday=1 through Sunday=7.
func Weekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

// WeekBounds returns the Monday and Sunday of t's week, at midnight UTC.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, -(Weekday(t) - 1))
	return start, start.AddDate(0, 0, 6)
}

// FormatDate renders a bucket bound.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func bounded(key string, t time.Time) Period {
	start, end := WeekBounds(t)
	return Period{Key: key, Start: start, End: end}
}

// Daily buckets by calendar date.
type Daily struct{}

func (Daily) Kind() string { return "daily" }

func (Daily) Assign(t time.Time) Period {
	return bounded(t.Format(dateLayout), t)
}

// FileName renders DD-MM-YYYY.json.
func (Daily) FileName(key string) string {
	if d, err := time.Parse(dateLayout, key); err == nil {
		return d.Format("02-01-2006") + ".json"
	}
	return key + ".json"
}

// DisplayDate renders a daily key as DD-MM-YYYY.
func (Daily) DisplayDate(key string) string {
	if d, err := time.Parse(dateLayout, key); err == nil {
		return d.Format("02-01-2006")
	}
	return key
}

// MondayWeek keys a bucket YYYY-MM-WeekN from its Monday, where N is
// ceil(day-of-month of the Monday / 7).
type MondayWeek struct{}

func (MondayWeek) Kind() string { return "weekly" }

func (MondayWeek) Assign(t time.Time) Period {
	start, _ := WeekBounds(t)
	n := (start.Day() + 6) / 7
	return bounded(fmt.Sprintf("%s-Week%d", start.Format("2006-01"), n), t)
}

func (MondayWeek) FileName(key string) string { return key + ".json" }

// MonthWeek keys a bucket YYYY-MM-Wnn by calendar week of month, counting
// weeks from Monday. A positive Cap limits the week index.
type MonthWeek struct {
	Cap int
}

func (MonthWeek) Kind() string { return "weekly" }

func (m MonthWeek) Assign(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	offset := Weekday(first) - 1
	n := (t.Day() + offset + 6) / 7
	if m.Cap > 0 && n > m.Cap {
		n = m.Cap
	}
	return bounded(fmt.Sprintf("%s-W%02d", t.Format("2006-01"), n), t)
}

func (MonthWeek) FileName(key string) string { return key + ".json" }

// New returns the strategy for a report kind and weekly key convention.
func New(kind, weekKey string, weekCap int) (Strategy, error) {
	switch kind {
	case "daily":
		return Daily{}, nil
	case "weekly":
		switch weekKey {
		case "", "monday":
			return MondayWeek{}, nil
		case "month_week":
			return MonthWeek{Cap: weekCap}, nil
		default:
			return nil, eris.Errorf("period: unknown week key %q", weekKey)
		}
	default:
		return nil, eris.Errorf("period: unknown kind %q", kind)
	}
}
