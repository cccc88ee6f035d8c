// Package timespan computes the local-time calendar spans the aggregation
// windows are keyed on: day, week, month, year, rain year and clock hour.
package timespan

import "time"

// grace is subtracted from a packet time before locating its span, so a
// reading stamped exactly on a boundary credits the span that just ended.
const grace = 1

// Span is a half-open interval (Start, Stop] in unix seconds.
type Span struct {
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
}

// Contains reports whether ts falls inside the span. The start is excluded
// and the stop included, so a midnight reading belongs to the ending day.
func (s Span) Contains(ts int64) bool {
	return ts > s.Start && ts <= s.Stop
}

// Zero reports whether the span is unset.
func (s Span) Zero() bool {
	return s.Start == 0 && s.Stop == 0
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Day returns the calendar-day span containing ts.
func Day(ts int64) Span {
	t := time.Unix(ts-grace, 0)
	start := midnightOf(t)
	return Span{Start: start.Unix(), Stop: start.AddDate(0, 0, 1).Unix()}
}

// Week returns the calendar-week span containing ts. startOfWeek follows
// the weekday numbering 0=Monday .. 6=Sunday.
func Week(ts int64, startOfWeek int) Span {
	t := time.Unix(ts-grace, 0)
	// time.Weekday has Sunday=0; shift to Monday=0.
	dayOfWeek := (int(t.Weekday()) + 6) % 7
	delta := dayOfWeek - startOfWeek
	if delta < 0 {
		delta += 7
	}
	start := midnightOf(t.AddDate(0, 0, -delta))
	return Span{Start: start.Unix(), Stop: start.AddDate(0, 0, 7).Unix()}
}

// Month returns the calendar-month span containing ts.
func Month(ts int64) Span {
	t := time.Unix(ts-grace, 0)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Span{Start: start.Unix(), Stop: start.AddDate(0, 1, 0).Unix()}
}

// Year returns the calendar-year span containing ts.
func Year(ts int64) Span {
	t := time.Unix(ts-grace, 0)
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return Span{Start: start.Unix(), Stop: start.AddDate(1, 0, 0).Unix()}
}

// RainYear returns the rain-year span containing ts for a rain year that
// begins on the first of startMonth (1-12).
func RainYear(ts int64, startMonth int) Span {
	t := time.Unix(ts-grace, 0)
	year := t.Year()
	if int(t.Month()) < startMonth {
		year--
	}
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, t.Location())
	return Span{Start: start.Unix(), Stop: start.AddDate(1, 0, 0).Unix()}
}

// Hour returns the clock-hour span containing ts.
func Hour(ts int64) Span {
	t := time.Unix(ts-grace, 0)
	start := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	return Span{Start: start.Unix(), Stop: start.Add(time.Hour).Unix()}
}

// Trailing returns the span covering the seconds seconds ending at ts.
func Trailing(ts int64, seconds int64) Span {
	return Span{Start: ts - seconds, Stop: ts}
}
