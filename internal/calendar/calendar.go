package calendar

import (
	"fmt"
	"time"

	"github.com/julianstephens/tally/internal/constants"
)

const secondsPerDay = 24 * 60 * 60

// Day is a calendar day expressed as the number of days since 1970-01-01.
// All streak and range arithmetic works on Day values, never on timestamps,
// so results do not depend on the timezone once "today" is fixed.
type Day int

// FromDate converts a calendar date to a Day. Out-of-range months and days
// are normalized the same way time.Date normalizes them.
func FromDate(year int, month time.Month, day int) Day {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Day(t.Unix() / secondsPerDay)
}

// FromTime returns the Day of t's wall-clock date in t's own location.
func FromTime(t time.Time) Day {
	return FromDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current Day in loc. A nil loc means time.Local.
func Today(loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Day, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// Time returns midnight UTC of d.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Date returns the calendar date of d.
func (d Day) Date() (year int, month time.Month, day int) {
	return d.Time().Date()
}

func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Day) String() string {
	return d.Time().Format(constants.DateFormat)
}

// MarshalText encodes d as YYYY-MM-DD so JSON and YAML output stay readable.
func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns d shifted by n days.
func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// WeekBounds returns the inclusive Monday..Sunday range containing d.
func WeekBounds(d Day) (start, end Day) {
	offset := (int(d.Weekday()) + 6) % 7
	start = d - Day(offset)
	return start, start + 6
}

// MonthBounds returns the inclusive first..last day of d's month.
func MonthBounds(d Day) (start, end Day) {
	ym := Of(d)
	return ym.First(), ym.Last()
}

// Min returns the earlier of a and b.
func Min(a, b Day) Day {
	if a < b {
		return a
	}
	return b
}

// Max returns the later of a and b.
func Max(a, b Day) Day {
	if a > b {
		return a
	}
	return b
}
