package core

import (
	"errors"
	"time"
)

// Filter is a named preset resolving to a concrete date range.
type Filter string

const (
	FilterThisWeek  Filter = "thisWeek"
	FilterThisMonth Filter = "thisMonth"
	FilterLast30    Filter = "last30"
	FilterAllTime   Filter = "allTime"
)

var ErrUnknownFilter = errors.New("unknown time filter")

// ParseFilter resolves a filter tag; an empty tag defaults to thisMonth,
// matching the dashboard default.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterThisWeek, FilterThisMonth, FilterLast30, FilterAllTime:
		return Filter(s), nil
	case "":
		return FilterThisMonth, nil
	default:
		return "", ErrUnknownFilter
	}
}

// Window is a resolved chart range. Start and End are inclusive day
// boundaries; TickInterval and LabelFormat are presentation hints (how many
// axis labels to skip, and the Go time layout for point labels).
type Window struct {
	Start        time.Time
	End          time.Time
	TickInterval int
	LabelFormat  string
}

// FullDateFormat is the layout used for the long-form date on chart points.
const FullDateFormat = "Jan 02, 2006"

// Range resolves the filter to the interval used for list filtering.
// bounded is false for allTime, which has no lower bound. Boundaries are
// computed in now's location; callers pass now already in the app timezone.
//
// Weeks run Sunday through Saturday. last30 spans from the same instant 30
// days ago through end of today.
func (f Filter) Range(now time.Time) (start, end time.Time, bounded bool) {
	switch f {
	case FilterThisWeek:
		start = startOfDay(now).AddDate(0, 0, -int(now.Weekday()))
		end = endOfDay(start.AddDate(0, 0, 6))
	case FilterLast30:
		start = now.AddDate(0, 0, -30)
		end = endOfDay(now)
	case FilterAllTime:
		return time.Time{}, time.Time{}, false
	default: // thisMonth
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = endOfDay(start.AddDate(0, 1, -1))
	}
	return start, end, true
}

// ChartWindow resolves the filter to the interval charts are drawn over.
// Unlike Range, every chart window is bounded: under allTime the series is
// capped to the trailing three months. That cap is purely presentational —
// it keeps the series length manageable and does not affect the all-time
// totals or the headline balance, which are never capped.
//
// last30 charts cover today plus the 29 preceding days (30 points), while
// the last30 list filter reaches a full 30 days back; both reproduce the
// original dashboard exactly.
func (f Filter) ChartWindow(now time.Time) Window {
	switch f {
	case FilterThisWeek:
		start := startOfDay(now).AddDate(0, 0, -int(now.Weekday()))
		return Window{
			Start:        start,
			End:          endOfDay(start.AddDate(0, 0, 6)),
			TickInterval: 0,
			LabelFormat:  "Mon",
		}
	case FilterLast30:
		return Window{
			Start:        startOfDay(now.AddDate(0, 0, -29)),
			End:          endOfDay(now),
			TickInterval: 5,
			LabelFormat:  "Jan 02",
		}
	case FilterAllTime:
		return Window{
			Start:        startOfDay(now.AddDate(0, -3, 0)),
			End:          endOfDay(now),
			TickInterval: 10,
			LabelFormat:  "Jan 02",
		}
	default: // thisMonth
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{
			Start:        start,
			End:          endOfDay(start.AddDate(0, 1, -1)),
			TickInterval: 4,
			LabelFormat:  "Jan 02",
		}
	}
}

// Days returns the calendar days covered by the window, one per day,
// inclusive of both boundaries.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := startOfDay(w.Start); !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// LocalMidnight returns the start of the calendar day containing now in loc.
// This is the "today" boundary the daily spending limit is evaluated against.
func LocalMidnight(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
