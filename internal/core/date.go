package core

import "time"

// DatePlaceholder is shown wherever a date cannot be built.
const DatePlaceholder = "—"

// Date is a calendar day at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day without normalization.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// BuildDate is the only place calendar dates are assembled from stored
// components. A day past the end of the month is clamped to the month's last day
// (31 February 2026 becomes 28 February 2026). Months outside 1..12, days below 1
// and years below 1 are rejected.
func BuildDate(year, month, day int) (Date, error) {
	if year < 1 {
		return Date{}, ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return Date{}, ErrInvalidMonth
	}
	if day < 1 {
		return Date{}, ErrInvalidDay
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day), nil
}

// DaysIn returns the number of days of the month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddMonths moves the date by n months keeping the day when possible and
// clamping it otherwise.
func (d Date) AddMonths(n int) Date {
	total := d.Year()*12 + (d.Month() - 1) + n
	year, month := total/12, total%12+1
	out, err := BuildDate(year, month, d.Day())
	if err != nil {
		return Date{}
	}
	return out
}

// FormatDate renders a built date with layout, or DatePlaceholder when the date
// could not be built.
func FormatDate(d Date, ok bool, layout string) string {
	if !ok || d.IsEmpty() {
		return DatePlaceholder
	}
	return d.Format(layout)
}
