package lease

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestWeeklySchedule_ProratedEnds(t *testing.T) {
	// Wednesday 2024-01-03 through Wednesday 2024-01-31, weeks start Sunday.
	items, err := WeeklySchedule(date(2024, 1, 3), date(2024, 1, 31), dec("700"), time.Sunday, 1)
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, date(2024, 1, 3), items[0].PeriodStart)
	assert.Equal(t, date(2024, 1, 6), items[0].PeriodEnd)
	assert.Equal(t, 4, items[0].Days)
	assert.True(t, dec("400").Equal(items[0].Amount))

	for _, it := range items[1:4] {
		assert.Equal(t, time.Sunday, Weekday(it.PeriodStart))
		assert.Equal(t, 7, it.Days)
		assert.True(t, dec("700").Equal(it.Amount))
	}

	last := items[4]
	assert.Equal(t, date(2024, 1, 28), last.PeriodStart)
	assert.Equal(t, date(2024, 1, 31), last.PeriodEnd)
	assert.Equal(t, 4, last.Days)
	assert.True(t, dec("400").Equal(last.Amount))

	days := 0
	for i, it := range items {
		assert.Equal(t, i+1, it.Number)
		assert.Equal(t, it.PeriodStart, it.DueDate)
		days += it.Days
	}
	assert.Equal(t, 29, days)
	assert.True(t, dec("2900").Equal(Total(items)))
}

func TestWeeklySchedule_FullWeeksOnly(t *testing.T) {
	// Sunday 2024-03-03 through Saturday 2024-03-16.
	items, err := WeeklySchedule(date(2024, 3, 3), date(2024, 3, 16), dec("425.50"), time.Sunday, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, 7, it.Days)
		assert.True(t, dec("425.50").Equal(it.Amount))
	}
}

func TestWeeklySchedule_CycleStartMonday(t *testing.T) {
	// Sunday 2024-03-03 is the last day of a Monday-based week.
	items, err := WeeklySchedule(date(2024, 3, 3), date(2024, 3, 10), dec("700"), time.Monday, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 1, items[0].Days)
	assert.True(t, dec("100").Equal(items[0].Amount))
	assert.Equal(t, date(2024, 3, 4), items[1].PeriodStart)
	assert.Equal(t, time.Monday, Weekday(items[1].PeriodStart))
	assert.Equal(t, 7, items[1].Days)
}

func TestWeeklySchedule_SingleDay(t *testing.T) {
	items, err := WeeklySchedule(date(2024, 5, 15), date(2024, 5, 15), dec("500"), time.Sunday, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Days)
	assert.True(t, dec("71.43").Equal(items[0].Amount))
}

func TestWeeklySchedule_NumberingOffset(t *testing.T) {
	items, err := WeeklySchedule(date(2024, 1, 7), date(2024, 1, 20), dec("100"), time.Sunday, 27)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 27, items[0].Number)
	assert.Equal(t, 28, items[1].Number)
}

func TestWeeklySchedule_Errors(t *testing.T) {
	_, err := WeeklySchedule(date(2024, 2, 1), date(2024, 1, 31), dec("100"), time.Sunday, 1)
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	_, err = WeeklySchedule(date(2024, 1, 1), date(2024, 1, 31), dec("-1"), time.Sunday, 1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestProrate(t *testing.T) {
	tests := []struct {
		weekly string
		days   int
		want   string
	}{
		{"500", 7, "500"},
		{"500", 3, "214.29"},
		{"500", 1, "71.43"},
		{"350", 2, "100"},
		{"0", 5, "0"},
	}
	for _, tt := range tests {
		got := Prorate(dec(tt.weekly), tt.days)
		assert.True(t, dec(tt.want).Equal(got), "weekly %s days %d: got %s", tt.weekly, tt.days, got)
	}
}
