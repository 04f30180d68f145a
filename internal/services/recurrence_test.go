package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lancamentos/internal/core"
)

func TestMonthlyStepper_Occurrence(t *testing.T) {
	stepper := MonthlyStepper{}
	start := core.NewDate(2026, 1, 31)

	tests := []struct {
		name string
		n    int
		want core.Date
	}{
		{name: "start", n: 0, want: core.NewDate(2026, 1, 31)},
		{name: "february clamps", n: 1, want: core.NewDate(2026, 2, 28)},
		{name: "march keeps day 31", n: 2, want: core.NewDate(2026, 3, 31)},
		{name: "april clamps to 30", n: 3, want: core.NewDate(2026, 4, 30)},
		{name: "leap february", n: 25, want: core.NewDate(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stepper.Occurrence(start, tt.n))
		})
	}
}

func TestDayStepper_Occurrence(t *testing.T) {
	start := core.NewDate(2026, 2, 20)
	assert.Equal(t, core.NewDate(2026, 3, 6), DayStepper{Days: 14}.Occurrence(start, 1))
	assert.Equal(t, core.NewDate(2026, 3, 13), DayStepper{Days: 7}.Occurrence(start, 3))
}

func TestGetStepper(t *testing.T) {
	tests := []struct {
		kind    core.Recurrence
		want    Stepper
		wantErr bool
	}{
		{kind: core.RecurrenceMonthly, want: MonthlyStepper{}},
		{kind: core.RecurrenceBiweekly, want: DayStepper{Days: 14}},
		{kind: core.RecurrenceWeekly, want: DayStepper{Days: 7}},
		{kind: core.RecurrenceInstallment, want: MonthlyStepper{}},
		{kind: core.RecurrenceNone, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := GetStepper(tt.kind)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fixedStepper struct{ date core.Date }

func (f fixedStepper) Occurrence(core.Date, int) core.Date { return f.date }

func TestRegisterStepper(t *testing.T) {
	kind := core.Recurrence(99)
	want := core.NewDate(2030, 1, 1)
	RegisterStepper(kind, fixedStepper{date: want})
	t.Cleanup(func() { delete(steppers, kind) })

	dates, err := Schedule(core.NewDate(2026, 1, 1), kind, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.Date{want, want}, dates)
}

func TestSchedule(t *testing.T) {
	dates, err := Schedule(core.NewDate(2025, 12, 15), core.RecurrenceInstallment, 3)
	require.NoError(t, err)
	assert.Equal(t, []core.Date{
		core.NewDate(2025, 12, 15),
		core.NewDate(2026, 1, 15),
		core.NewDate(2026, 2, 15),
	}, dates)

	_, err = Schedule(core.NewDate(2026, 1, 1), core.RecurrenceNone, 3)
	assert.Error(t, err)

	_, err = Schedule(core.NewDate(2026, 1, 1), core.RecurrenceMonthly, -1)
	assert.Error(t, err)
}

func TestNextOccurrence(t *testing.T) {
	start := core.NewDate(2026, 1, 5)

	got, err := NextOccurrence(start, core.RecurrenceWeekly, core.NewDate(2026, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2026, 1, 26), got)

	got, err = NextOccurrence(start, core.RecurrenceMonthly, core.NewDate(2026, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2026, 3, 5), got)

	got, err = NextOccurrence(start, core.RecurrenceMonthly, core.NewDate(2025, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestEntryStart(t *testing.T) {
	d, err := EntryStart(core.Entry{Posting: core.DayMonthYear{Day: 31, Month: 2, Year: 2026}})
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2026, 2, 28), d)

	_, err = EntryStart(core.Entry{Posting: core.DayMonthYear{Day: 1, Month: 0, Year: 2026}})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}
