package kpi

import (
	"strings"
	"time"
)

type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

// ParsePeriod falls back to monthly for empty or unknown input.
func ParsePeriod(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return p
	}
	return PeriodMonthly
}

// Since returns the first day included in the period ending at now,
// truncated to midnight in now's location. Month arithmetic normalises
// the way time.Date does (Mar 31 minus one month is Mar 3).
func Since(p Period, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodDaily:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case PeriodWeekly:
		w := now.AddDate(0, 0, -7)
		return time.Date(w.Year(), w.Month(), w.Day(), 0, 0, 0, 0, loc)
	case PeriodQuarterly:
		return time.Date(y, m-3, d, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m-1, d, 0, 0, 0, 0, loc)
	}
}
