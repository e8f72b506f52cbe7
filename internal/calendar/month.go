package calendar

import (
	"fmt"
	"time"
)

const yearMonthFormat = "2006-01"

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// Of returns the month containing d.
func Of(d Day) YearMonth {
	y, m, _ := d.Date()
	return YearMonth{Year: y, Month: m}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthFormat, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) First() Day {
	return FromDate(ym.Year, ym.Month, 1)
}

func (ym YearMonth) Last() Day {
	// Day 0 of the following month is the last day of this one.
	return FromDate(ym.Year, ym.Month+1, 0)
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return int(ym.Last()-ym.First()) + 1
}

func (ym YearMonth) Contains(d Day) bool {
	return d >= ym.First() && d <= ym.Last()
}

// Next returns the following month.
func (ym YearMonth) Next() YearMonth {
	return Of(ym.Last() + 1)
}

// Prev returns the preceding month.
func (ym YearMonth) Prev() YearMonth {
	return Of(ym.First() - 1)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) {
	return []byte(ym.String()), nil
}

func (ym *YearMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
