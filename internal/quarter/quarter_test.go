package quarter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
)

func TestPreviousMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want quarter.YearMonth
	}{
		{"january rolls back a year", time.Date(2026, time.January, 1, 9, 0, 0, 0, quarter.KST), quarter.YearMonth{Year: 2025, Month: time.December}},
		{"mid year", time.Date(2025, time.July, 15, 0, 0, 0, 0, quarter.KST), quarter.YearMonth{Year: 2025, Month: time.June}},
		{"december", time.Date(2025, time.December, 31, 23, 59, 0, 0, quarter.KST), quarter.YearMonth{Year: 2025, Month: time.November}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, quarter.PreviousMonth(tt.now))
		})
	}
}

func TestYearMonthString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2025-03", quarter.YearMonth{Year: 2025, Month: time.March}.String())
}

func TestMonthRange(t *testing.T) {
	t.Parallel()

	start, end := quarter.MonthRange(quarter.YearMonth{Year: 2025, Month: time.December})
	assert.Equal(t, quarter.Date(2025, time.December, 1), start)
	assert.Equal(t, quarter.Date(2026, time.January, 1), end)

	ym := quarter.YearMonth{Year: 2024, Month: time.February}
	assert.True(t, quarter.InMonth(quarter.Date(2024, time.February, 1), ym))
	assert.True(t, quarter.InMonth(quarter.Date(2024, time.February, 29), ym))
	assert.False(t, quarter.InMonth(quarter.Date(2024, time.March, 1), ym))
	assert.False(t, quarter.InMonth(quarter.Date(2024, time.January, 31), ym))
}

func TestQuarterEndDate_LastDayOfMonth(t *testing.T) {
	t.Parallel()

	for q := 1; q <= 4; q++ {
		end, err := quarter.QuarterEndDate(2025, q)
		require.NoError(t, err)
		assert.Equal(t, time.Month(q*3), end.Month())
		assert.Equal(t, 1, end.AddDate(0, 0, 1).Day(), "quarter %d should end on the last day", q)
	}
}

func TestQuarterEndDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, q := range []int{0, 5, -1} {
		_, err := quarter.QuarterEndDate(2025, q)
		require.ErrorIs(t, err, quarter.ErrInvalidQuarter)
	}
}

func TestQuarterDeadline(t *testing.T) {
	t.Parallel()

	dl, err := quarter.QuarterDeadline(2025, 1, 30)
	require.NoError(t, err)
	assert.Equal(t, quarter.Date(2025, time.April, 30), dl)

	dl, err = quarter.YearQuarter{Year: 2025, Quarter: 4}.Deadline(30)
	require.NoError(t, err)
	assert.Equal(t, quarter.Date(2026, time.January, 30), dl)

	_, err = quarter.QuarterDeadline(2025, 7, 30)
	require.ErrorIs(t, err, quarter.ErrInvalidQuarter)
}

func TestReportQuarters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		today    time.Time
		wantYear int
	}{
		{quarter.Date(2026, time.January, 1), 2025},
		{quarter.Date(2026, time.February, 28), 2025},
		{quarter.Date(2026, time.March, 1), 2026},
		{quarter.Date(2026, time.November, 1), 2026},
	}

	for _, tt := range tests {
		got := quarter.ReportQuarters(tt.today)
		require.Len(t, got, 4)
		for i, yq := range got {
			assert.Equal(t, tt.wantYear, yq.Year)
			assert.Equal(t, i+1, yq.Quarter)
		}
	}
}

func TestDateOf(t *testing.T) {
	t.Parallel()

	// 23:30 UTC on the 31st is already the 1st in Seoul.
	now := time.Date(2025, time.March, 31, 23, 30, 0, 0, time.UTC).In(quarter.KST)
	assert.Equal(t, quarter.Date(2025, time.April, 1), quarter.DateOf(now))
	assert.Equal(t, "2025-04-01", quarter.FormatDate(quarter.DateOf(now)))
}
