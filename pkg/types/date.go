package types

import (
	"fmt"
	"time"
)

// Wire formats for dates stored in the ledger. They are locale-fixed and are
// not ISO-8601; existing databases and backups depend on them.
const (
	DateLayout      = "02/01/2006"
	TimestampLayout = "02/01/2006 15:04"
)

// Date is a calendar date without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a DD/MM/YYYY string. Values that time.Parse would
// normalize (31/02/2025) are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidArgument, s, err)
	}
	return DateOf(t), nil
}

// String formats d as DD/MM/YYYY.
func (d Date) String() string {
	return d.time().Format(DateLayout)
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.time().Before(o.time()) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.time().After(o.time()) }

// Compare returns -1, 0 or +1 as d is before, equal to or after o.
func (d Date) Compare(o Date) int { return d.time().Compare(o.time()) }

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Timestamp formats t as DD/MM/YYYY HH:MM, the display timestamp used for
// payments and log entries. It is not sortable; ordering uses row ids.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
