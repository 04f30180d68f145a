package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Recurrence classifies how an entry repeats.
type Recurrence int

const (
	RecurrenceNone Recurrence = iota
	RecurrenceMonthly
	RecurrenceBiweekly
	RecurrenceWeekly
	RecurrenceInstallment
)

func (r Recurrence) String() string {
	switch r {
	case RecurrenceMonthly:
		return "monthly"
	case RecurrenceBiweekly:
		return "biweekly"
	case RecurrenceWeekly:
		return "weekly"
	case RecurrenceInstallment:
		return "installment"
	default:
		return "none"
	}
}

// IsRepeating is true for monthly, biweekly and weekly entries.
func (r Recurrence) IsRepeating() bool {
	return r == RecurrenceMonthly || r == RecurrenceBiweekly || r == RecurrenceWeekly
}

// RecurrenceKind maps a stored code. Unknown codes map to RecurrenceNone.
func RecurrenceKind(code int) Recurrence {
	r := Recurrence(code)
	switch r {
	case RecurrenceNone, RecurrenceMonthly, RecurrenceBiweekly, RecurrenceWeekly, RecurrenceInstallment:
		return r
	}
	return RecurrenceNone
}

var two = decimal.NewFromInt(2)

// SignedAmount negates the amount of expenses.
func SignedAmount(e Entry) decimal.Decimal {
	if e.Kind == Expense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// BalanceContribution is the signed amount, halved for split entries.
func BalanceContribution(e Entry) decimal.Decimal {
	signed := SignedAmount(e)
	if e.Split {
		return signed.Div(two)
	}
	return signed
}

// SumContributions adds the balance contribution of every entry.
func SumContributions(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(BalanceContribution(e))
	}
	return total
}

// GroupingDate is the statement date used to bucket an entry. With a card it is
// the card's due day in the posting month, otherwise the posting date itself.
// Days past the end of the month are clamped (see BuildDate); ok is false when
// the stored components cannot form a date.
func GroupingDate(e Entry, card *Card) (Date, bool) {
	day := e.Posting.Day
	if card != nil {
		day = card.DueDay
	}
	d, err := BuildDate(e.Posting.Year, e.Posting.Month, day)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// GroupingKey is the YYYY-MM bucket of the grouping date, empty when absent.
func GroupingKey(e Entry, card *Card) string {
	d, ok := GroupingDate(e, card)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", d.Year(), d.Month())
}

// TimestampFormat names the layout a creation timestamp was parsed with.
type TimestampFormat int

const (
	TimestampUnknown TimestampFormat = iota
	TimestampFractional
	TimestampPlain
	TimestampLegacy
)

const (
	// LayoutFractional is ISO-8601 with millisecond precision. New entries are
	// stamped with it.
	LayoutFractional = "2006-01-02T15:04:05.000Z07:00"
	LayoutPlain      = time.RFC3339
	LayoutLegacy     = "2006-01-02"
)

// MinDate stands for an unknown creation date.
var MinDate = time.Time{}

var timestampLayouts = []struct {
	layout string
	format TimestampFormat
}{
	{LayoutFractional, TimestampFractional},
	{LayoutPlain, TimestampPlain},
	{LayoutLegacy, TimestampLegacy},
}

// ParseCreationTimestamp tries the fractional, plain and legacy layouts in that
// order.
func ParseCreationTimestamp(s string) (time.Time, TimestampFormat, error) {
	s = strings.TrimSpace(s)
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.format, nil
		}
	}
	return MinDate, TimestampUnknown, fmt.Errorf("%w: creation timestamp %q", ErrParseFailure, s)
}

// CreationDate never fails: unparseable timestamps yield MinDate.
func CreationDate(e Entry) time.Time {
	t, _, err := ParseCreationTimestamp(e.CreatedAt)
	if err != nil {
		return MinDate
	}
	return t
}

// IsUnknownDate reports whether t is the MinDate sentinel.
func IsUnknownDate(t time.Time) bool {
	return t.Equal(MinDate)
}

// FormatCreationTimestamp stamps t with LayoutFractional in UTC.
func FormatCreationTimestamp(t time.Time) string {
	return t.UTC().Format(LayoutFractional)
}
