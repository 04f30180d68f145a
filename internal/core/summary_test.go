package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverview_GroupsByStatementDate(t *testing.T) {
	card := &Card{DueDay: 10, ClosingDay: 3}
	details := []EntryDetail{
		{Entry: Entry{Kind: Expense, Amount: dec("30"), Posting: DayMonthYear{Day: 2, Month: 3, Year: 2026}}, Card: card},
		{Entry: Entry{Kind: Income, Amount: dec("1000"), Posting: DayMonthYear{Day: 5, Month: 3, Year: 2026}}},
		{Entry: Entry{Kind: Expense, Amount: dec("20"), Split: true, Posting: DayMonthYear{Day: 25, Month: 3, Year: 2026}}, Card: card},
		{Entry: Entry{Kind: Expense, Amount: dec("7"), Posting: DayMonthYear{Day: 1, Month: 0, Year: 2026}}},
	}

	o := Overview(2026, 3, details)
	assert.True(t, dec("1000").Equal(o.Income))
	assert.True(t, dec("47").Equal(o.Expense), "expense = %s", o.Expense)
	assert.True(t, dec("953").Equal(o.Balance), "balance = %s", o.Balance)

	require.Len(t, o.Groups, 3)
	assert.Equal(t, NewDate(2026, 3, 10), o.Groups[0].Date)
	assert.Len(t, o.Groups[0].Entries, 2)
	assert.True(t, dec("-40").Equal(o.Groups[0].Total), "total = %s", o.Groups[0].Total)

	assert.Equal(t, NewDate(2026, 3, 5), o.Groups[1].Date)
	assert.False(t, o.Groups[2].Known)
	assert.True(t, dec("-7").Equal(o.Groups[2].Total))
}

func TestDerive(t *testing.T) {
	v := Derive(EntryDetail{Entry: Entry{
		Kind:           Expense,
		Amount:         dec("100.00"),
		Split:          true,
		RecurrenceCode: 4,
		Posting:        DayMonthYear{Day: 9, Month: 9, Year: 2026},
		CreatedAt:      "garbage",
	}})
	assert.True(t, dec("-100").Equal(v.SignedAmount))
	assert.True(t, dec("-50").Equal(v.BalanceContribution))
	assert.Equal(t, RecurrenceInstallment, v.Recurrence)
	assert.True(t, IsUnknownDate(v.CreatedAt))
	assert.True(t, v.HasGroupingDate)
}
