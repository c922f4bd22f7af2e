package calendar

import (
	"testing"
	"time"

	"github.com/smallbiznis/bistro/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDateMatchesEpochs(t *testing.T) {
	assert.Equal(t, DayNumber(0), FromDate(1, time.January, 1))
	assert.Equal(t, DayNumber(719162), FromDate(1970, time.January, 1))
	assert.Equal(t, DayNumber(739616), FromDate(2026, time.January, 1))
}

func TestDayNumberRoundTrip(t *testing.T) {
	d := FromDate(2026, time.October, 19)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), d.Time())
	assert.Equal(t, "2026-10-19", d.String())
	assert.Equal(t, time.Monday, d.Weekday())

	parsed, err := Parse("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = Parse("19.10.2026")
	assert.Error(t, err)
}

func TestFromTimeIgnoresClockTime(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	late := time.Date(2026, time.October, 19, 23, 30, 0, 0, berlin)
	early := time.Date(2026, time.October, 19, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, FromTime(early), FromTime(late))
}

func TestWeekStart(t *testing.T) {
	monday := FromDate(2026, time.October, 19)
	cases := map[string]time.Time{
		"monday":    time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC),
		"wednesday": time.Date(2026, time.October, 21, 12, 0, 0, 0, time.UTC),
		"friday":    time.Date(2026, time.October, 23, 12, 0, 0, 0, time.UTC),
		"saturday":  time.Date(2026, time.October, 24, 12, 0, 0, 0, time.UTC),
		"sunday":    time.Date(2026, time.October, 25, 23, 59, 0, 0, time.UTC),
	}
	for name, ts := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(ts))
		})
	}

	assert.Equal(t, FromDate(2026, time.October, 26), WeekStart(time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC)))
}

func TestWeekStartBoundsEveryDay(t *testing.T) {
	start := time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		ts := start.AddDate(0, 0, i)
		day := FromTime(ts)
		monday := WeekStart(ts)

		assert.LessOrEqual(t, monday, day)
		assert.Less(t, day-monday, DayNumber(7))
		assert.Equal(t, time.Monday, monday.Weekday())
	}
}

func TestWeek(t *testing.T) {
	monday, friday := Week(time.Date(2026, time.October, 25, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, FromDate(2026, time.October, 19), monday)
	assert.Equal(t, FromDate(2026, time.October, 23), friday)

	days := BusinessWeek(monday)
	require.Len(t, days, BusinessDays)
	assert.Equal(t, monday, days[0])
	assert.Equal(t, friday, days[4])
}

func TestToday(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, time.October, 19, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, FromDate(2026, time.October, 19), Today(clk, nil))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, FromDate(2026, time.October, 20), Today(clk, tokyo))
}
