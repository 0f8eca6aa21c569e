package models

import (
	"fmt"
	"time"
)

// MonthLayout is the key format used for accrual months and references
const MonthLayout = "2006-01"

// Month is a calendar month in UTC
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// String returns the YYYY-MM key
func (m Month) String() string {
	return m.Start().Format(MonthLayout)
}

// Compact returns the YYYYMM form used in fee references
func (m Month) Compact() string {
	return m.Start().Format("200601")
}

// Start is the first day of the month at midnight UTC
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month at midnight UTC
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, -1)
}

// Next returns the following month
func (m Month) Next() Month {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

// Before reports whether m is strictly earlier than o
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// DateOnly truncates t to midnight UTC of its calendar day
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsMonthEnd reports whether t falls on the last day of its month
func IsMonthEnd(t time.Time) bool {
	return DateOnly(t).Equal(MonthOf(t).End())
}
