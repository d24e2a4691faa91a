package report

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestPeriodOfWeekBoundaries(t *testing.T) {
	// 2025-08-25 is a Monday, ISO week 35.
	monday := date(2025, time.August, 25, 0, 0)
	sunday := date(2025, time.August, 31, 23, 59)

	for _, tt := range []struct {
		name string
		in   time.Time
	}{
		{"monday midnight", monday},
		{"midweek", date(2025, time.August, 28, 12, 30)},
		{"sunday last minute", sunday},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodOf(tt.in, ByWeek, time.UTC)
			if p.Key != 35 || p.Year != 2025 {
				t.Fatalf("expected week 35 2025, got week %d %d", p.Key, p.Year)
			}
			if !p.Start.Equal(monday) {
				t.Errorf("expected start %v, got %v", monday, p.Start)
			}
			if p.End.Day() != 31 || p.End.Hour() != 23 || p.End.Minute() != 59 {
				t.Errorf("expected end on Sunday 23:59, got %v", p.End)
			}
		})
	}
}

func TestPeriodOfAdjacentWeeksShareNoTimestamps(t *testing.T) {
	sundayNight := date(2025, time.August, 31, 23, 59)
	nextMonday := date(2025, time.September, 1, 0, 0)

	p1 := PeriodOf(sundayNight, ByWeek, time.UTC)
	p2 := PeriodOf(nextMonday, ByWeek, time.UTC)

	if p1.Key == p2.Key {
		t.Fatalf("adjacent weeks collapsed into week %d", p1.Key)
	}
	if !p2.Start.Equal(p1.End.Add(time.Second)) {
		t.Errorf("weeks must tile: %v then %v", p1.End, p2.Start)
	}
}

func TestPeriodOfISOWeekYearBoundary(t *testing.T) {
	// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
	p := PeriodOf(date(2024, time.December, 30, 10, 0), ByWeek, time.UTC)
	if p.Year != 2025 || p.Key != 1 {
		t.Fatalf("expected week 1 2025, got week %d %d", p.Key, p.Year)
	}

	// 2027-01-01 is a Friday belonging to ISO week 53 of 2026.
	p = PeriodOf(date(2027, time.January, 1, 10, 0), ByWeek, time.UTC)
	if p.Year != 2026 || p.Key != 53 {
		t.Fatalf("expected week 53 2026, got week %d %d", p.Key, p.Year)
	}
}

func TestPeriodOfMonth(t *testing.T) {
	p := PeriodOf(date(2025, time.February, 14, 9, 0), ByMonth, time.UTC)

	if p.Key != 2 || p.Year != 2025 {
		t.Fatalf("expected month 2 2025, got %d %d", p.Key, p.Year)
	}
	if p.Start.Day() != 1 {
		t.Errorf("expected start on day 1, got %v", p.Start)
	}
	if p.End.Day() != 28 || p.End.Hour() != 23 {
		t.Errorf("expected end 28th 23:59:59, got %v", p.End)
	}
}

func TestPeriodLabelIncludesYear(t *testing.T) {
	a := PeriodOf(date(2024, time.August, 20, 0, 0), ByWeek, time.UTC)
	b := PeriodOf(date(2025, time.August, 19, 0, 0), ByWeek, time.UTC)

	if a.Key != b.Key {
		t.Skipf("weeks differ (%d vs %d), labels trivially unique", a.Key, b.Key)
	}
	if a.Label() == b.Label() {
		t.Errorf("same-numbered weeks of different years must not share a label: %q", a.Label())
	}
}

func TestPeriodBefore(t *testing.T) {
	earlier := PeriodOf(date(2025, time.March, 3, 0, 0), ByWeek, time.UTC)
	later := PeriodOf(date(2025, time.March, 10, 0, 0), ByWeek, time.UTC)

	if !earlier.Before(later) {
		t.Error("expected week of March 3 before week of March 10")
	}
	if later.Before(earlier) {
		t.Error("ordering must be asymmetric")
	}
}

func TestFormatDate(t *testing.T) {
	got := FormatDate(date(2025, time.August, 5, 14, 7), time.UTC)
	if got != "05.08.25 14:07" {
		t.Errorf("unexpected format: %q", got)
	}
}
