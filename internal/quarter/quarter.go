// Package quarter does the calendar arithmetic behind report months and quarter deadlines.
//
// Calendar dates are represented as time.Time values at midnight UTC so that they
// compare and add days without daylight or offset surprises.
package quarter

import (
	"errors"
	"fmt"
	"time"
)

// KST is the fixed Korea Standard Time zone used for "now".
var KST = time.FixedZone("KST", 9*60*60)

// ErrInvalidQuarter is returned for quarters outside 1..4.
var ErrInvalidQuarter = errors.New("quarter must be 1..4")

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// String formats as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// YearQuarter identifies a calendar quarter.
type YearQuarter struct {
	Year    int
	Quarter int
}

func (yq YearQuarter) String() string {
	return fmt.Sprintf("%d Q%d", yq.Year, yq.Quarter)
}

// EndDate is QuarterEndDate for yq.
func (yq YearQuarter) EndDate() (time.Time, error) {
	return QuarterEndDate(yq.Year, yq.Quarter)
}

// Deadline is QuarterDeadline for yq.
func (yq YearQuarter) Deadline(bufferDays int) (time.Time, error) {
	return QuarterDeadline(yq.Year, yq.Quarter, bufferDays)
}

// Now returns the current time in KST.
func Now() time.Time {
	return time.Now().In(KST)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping the calendar date in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(time.DateOnly)
}

// PreviousMonth returns the month before the one containing now.
func PreviousMonth(now time.Time) YearMonth {
	y, m, _ := now.Date()
	if m == time.January {
		return YearMonth{Year: y - 1, Month: time.December}
	}
	return YearMonth{Year: y, Month: m - 1}
}

// MonthRange returns the half-open range [start, end) covering ym.
func MonthRange(ym YearMonth) (start, end time.Time) {
	start = Date(ym.Year, ym.Month, 1)
	return start, start.AddDate(0, 1, 0)
}

// InMonth reports whether the calendar date d falls inside ym.
func InMonth(d time.Time, ym YearMonth) bool {
	start, end := MonthRange(ym)
	return !d.Before(start) && d.Before(end)
}

// QuarterEndDate returns the last day of the quarter.
func QuarterEndDate(year, q int) (time.Time, error) {
	switch q {
	case 1:
		return Date(year, time.March, 31), nil
	case 2:
		return Date(year, time.June, 30), nil
	case 3:
		return Date(year, time.September, 30), nil
	case 4:
		return Date(year, time.December, 31), nil
	default:
		return time.Time{}, fmt.Errorf("%w: got %d", ErrInvalidQuarter, q)
	}
}

// QuarterDeadline returns the quarter end plus bufferDays.
func QuarterDeadline(year, q, bufferDays int) (time.Time, error) {
	end, err := QuarterEndDate(year, q)
	if err != nil {
		return time.Time{}, err
	}
	return end.AddDate(0, 0, bufferDays), nil
}

// ReportYear is the year whose quarters a report covers. January and February
// still report on the previous year.
func ReportYear(today time.Time) int {
	y, m, _ := today.Date()
	if m <= time.February {
		return y - 1
	}
	return y
}

// ReportQuarters returns Q1..Q4 of ReportYear(today), in order.
// All four are returned even when some have not ended yet.
func ReportQuarters(today time.Time) []YearQuarter {
	y := ReportYear(today)
	out := make([]YearQuarter, 0, 4)
	for q := 1; q <= 4; q++ {
		out = append(out, YearQuarter{Year: y, Quarter: q})
	}
	return out
}
