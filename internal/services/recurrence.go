// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurrence schedules. Each
// recurrence kind (monthly, biweekly, weekly, installment) has its own stepper
// that knows where the n-th occurrence after a start date falls.

package services

import (
	"fmt"

	"lancamentos/internal/core"
)

// Stepper is the strategy interface for recurrence schedules.
type Stepper interface {
	// Occurrence returns the n-th occurrence after start; n=0 is start itself.
	// Implementations compute from start every time so clamped days do not
	// drift (31 Jan, 28 Feb, 31 Mar).
	Occurrence(start core.Date, n int) core.Date
}

// MonthlyStepper repeats on the same day every month, clamped to month end.
type MonthlyStepper struct{}

func (MonthlyStepper) Occurrence(start core.Date, n int) core.Date {
	return start.AddMonths(n)
}

// DayStepper repeats every Days days.
type DayStepper struct {
	Days int
}

func (s DayStepper) Occurrence(start core.Date, n int) core.Date {
	return core.Date{Time: start.AddDate(0, 0, s.Days*n)}
}

// steppers maps recurrence kinds to their strategies. Installments are billed
// monthly.
var steppers = map[core.Recurrence]Stepper{
	core.RecurrenceMonthly:     MonthlyStepper{},
	core.RecurrenceBiweekly:    DayStepper{Days: 14},
	core.RecurrenceWeekly:      DayStepper{Days: 7},
	core.RecurrenceInstallment: MonthlyStepper{},
}

// GetStepper returns the stepper for a recurrence kind. Entries that do not
// repeat have none.
func GetStepper(kind core.Recurrence) (Stepper, error) {
	s, ok := steppers[kind]
	if !ok {
		return nil, fmt.Errorf("no schedule for recurrence %s", kind)
	}
	return s, nil
}

// RegisterStepper installs or replaces the stepper of a recurrence kind.
func RegisterStepper(kind core.Recurrence, s Stepper) {
	steppers[kind] = s
}

// Schedule lists the first n occurrences starting at start.
func Schedule(start core.Date, kind core.Recurrence, n int) ([]core.Date, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative occurrence count %d", n)
	}
	s, err := GetStepper(kind)
	if err != nil {
		return nil, err
	}
	out := make([]core.Date, n)
	for i := range out {
		out[i] = s.Occurrence(start, i)
	}
	return out, nil
}

// maxLookahead bounds NextOccurrence for weekly schedules far in the past.
const maxLookahead = 100 * 53

// NextOccurrence returns the first occurrence of a schedule on or after from.
func NextOccurrence(start core.Date, kind core.Recurrence, from core.Date) (core.Date, error) {
	s, err := GetStepper(kind)
	if err != nil {
		return core.Date{}, err
	}
	for i := 0; i < maxLookahead; i++ {
		d := s.Occurrence(start, i)
		if !d.Before(from.Time) {
			return d, nil
		}
	}
	return core.Date{}, fmt.Errorf("no occurrence of %s schedule within lookahead", kind)
}

// EntryStart is the first occurrence date of an entry, built from its posting
// date.
func EntryStart(e core.Entry) (core.Date, error) {
	return core.BuildDate(e.Posting.Year, e.Posting.Month, e.Posting.Day)
}
