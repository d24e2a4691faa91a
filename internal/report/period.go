// Package report implements the stage-history analytics pipeline:
// calendar-period bucketing, path-keyed pivot aggregation and derived
// conversion-rate metrics.
package report

import (
	"fmt"
	"time"
)

type Granularity string

const (
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

// Period is one calendar-aligned bucket with inclusive boundaries.
// Boundary timestamps belong to the period containing them.
type Period struct {
	Year  int
	Key   int // ISO week number or month number
	Start time.Time
	End   time.Time
	Gran  Granularity
}

// PeriodOf computes the period containing t at the given granularity,
// evaluated in loc. Weeks use ISO semantics: the week begins Monday and the
// week number follows the ISO week-year.
func PeriodOf(t time.Time, g Granularity, loc *time.Location) Period {
	t = t.In(loc)
	if g == ByMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, -1)
		end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)
		return Period{Year: t.Year(), Key: int(t.Month()), Start: start, End: end, Gran: ByMonth}
	}

	year, week := t.ISOWeek()
	// Monday 00:00:00 of t's ISO week.
	offset := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, loc)
	return Period{Year: year, Key: week, Start: monday, End: sunday, Gran: ByWeek}
}

// Label renders the period's row label, e.g. "Week 34 2025" or
// "Month 8 2025". The year keeps paths unique when a range spans years.
func (p Period) Label() string {
	if p.Gran == ByMonth {
		return fmt.Sprintf("Month %d %d", p.Key, p.Year)
	}
	return fmt.Sprintf("Week %d %d", p.Key, p.Year)
}

const dateFormat = "02.01.06 15:04"

// FormatDate renders a timestamp the way report cells do.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateFormat)
}

// RangeLabel renders the inclusive boundary range for the period column.
func (p Period) RangeLabel() string {
	return p.Start.Format(dateFormat) + "-" + p.End.Format(dateFormat)
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	return p.Start.Before(o.Start)
}
