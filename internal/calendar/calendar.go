// Package calendar maps dates onto day numbers and Monday–Friday business weeks.
package calendar

import (
	"time"

	"github.com/smallbiznis/bistro/internal/clock"
)

// DayNumber counts days since 0001-01-01 in the proleptic Gregorian calendar.
// It carries no timezone: the same calendar date always yields the same number.
type DayNumber int32

const (
	// BusinessDays is the length of the served week, Monday through Friday.
	BusinessDays = 5

	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60

	// day number of 1970-01-01
	unixEpochDay DayNumber = 719162
)

// FromDate returns the day number of the given calendar date.
func FromDate(year int, month time.Month, day int) DayNumber {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DayNumber(midnight.Unix()/secondsPerDay) + unixEpochDay
}

// FromTime returns the day number of t's calendar date, read in t's own location.
func FromTime(t time.Time) DayNumber {
	y, m, d := t.Date()
	return FromDate(y, m, d)
}

// Parse reads a YYYY-MM-DD date.
func Parse(value string) (DayNumber, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return 0, err
	}
	return FromTime(t), nil
}

// Today resolves the current day number from c in loc. A nil loc means UTC.
func Today(c clock.Clock, loc *time.Location) DayNumber {
	if loc == nil {
		loc = time.UTC
	}
	return FromTime(c.Now().In(loc))
}

// Time returns midnight UTC of the day.
func (d DayNumber) Time() time.Time {
	return time.Unix(int64(d-unixEpochDay)*secondsPerDay, 0).UTC()
}

func (d DayNumber) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d DayNumber) AddDays(n int) DayNumber {
	return d + DayNumber(n)
}

func (d DayNumber) String() string {
	return d.Time().Format(dateLayout)
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func ISOWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) DayNumber {
	return WeekStartOf(FromTime(t))
}

// WeekStartOf returns the Monday of the week containing d.
func WeekStartOf(d DayNumber) DayNumber {
	return d - DayNumber(ISOWeekday(d.Weekday())-1)
}

// Week returns the Monday and Friday of the business week containing t.
func Week(t time.Time) (monday, friday DayNumber) {
	monday = WeekStart(t)
	return monday, monday + BusinessDays - 1
}

// BusinessWeek lists the Monday–Friday day numbers starting at monday.
func BusinessWeek(monday DayNumber) []DayNumber {
	days := make([]DayNumber, 0, BusinessDays)
	for i := 0; i < BusinessDays; i++ {
		days = append(days, monday.AddDays(i))
	}
	return days
}
