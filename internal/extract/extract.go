// Package extract pulls quarter and date facts out of free-form listing text.
package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
)

var (
	yearQuarterPattern = regexp.MustCompile(`(\d{4})\s*년.*?([1-4])\s*분기`)
	looseDatePattern   = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
)

// YearQuarter finds the first "YYYY년 ... N분기" in text.
func YearQuarter(text string) (quarter.YearQuarter, bool) {
	m := yearQuarterPattern.FindStringSubmatch(text)
	if m == nil {
		return quarter.YearQuarter{}, false
	}
	year, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])
	return quarter.YearQuarter{Year: year, Quarter: q}, true
}

// LooseDate finds the first YYYY.M.D style date in text (".", "-" or "/" separators).
// Impossible dates such as 2025-13-01 yield false.
func LooseDate(text string) (time.Time, bool) {
	m := looseDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	d := quarter.Date(year, time.Month(month), day)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}
