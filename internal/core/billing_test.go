package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementFor(t *testing.T) {
	tests := []struct {
		name        string
		card        Card
		purchase    Date
		wantDue     Date
		wantClosing Date
	}{
		{
			name:        "before closing, due after closing",
			card:        Card{ClosingDay: 3, DueDay: 10},
			purchase:    NewDate(2026, 3, 2),
			wantDue:     NewDate(2026, 3, 10),
			wantClosing: NewDate(2026, 3, 3),
		},
		{
			name:        "on closing day stays in cycle",
			card:        Card{ClosingDay: 3, DueDay: 10},
			purchase:    NewDate(2026, 3, 3),
			wantDue:     NewDate(2026, 3, 10),
			wantClosing: NewDate(2026, 3, 3),
		},
		{
			name:        "after closing rolls over",
			card:        Card{ClosingDay: 3, DueDay: 10},
			purchase:    NewDate(2026, 3, 5),
			wantDue:     NewDate(2026, 4, 10),
			wantClosing: NewDate(2026, 4, 3),
		},
		{
			name:        "due day before closing day is next month",
			card:        Card{ClosingDay: 28, DueDay: 5},
			purchase:    NewDate(2026, 1, 20),
			wantDue:     NewDate(2026, 2, 5),
			wantClosing: NewDate(2026, 1, 28),
		},
		{
			name:        "after late closing crosses year",
			card:        Card{ClosingDay: 28, DueDay: 5},
			purchase:    NewDate(2025, 12, 29),
			wantDue:     NewDate(2026, 2, 5),
			wantClosing: NewDate(2026, 1, 28),
		},
		{
			name:        "closing day 31 clamps in february",
			card:        Card{ClosingDay: 31, DueDay: 10},
			purchase:    NewDate(2026, 2, 28),
			wantDue:     NewDate(2026, 3, 10),
			wantClosing: NewDate(2026, 2, 28),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StatementFor(tt.card, tt.purchase)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, s.Due)
			assert.Equal(t, tt.wantClosing, s.Closing)
			assert.Equal(t, tt.wantDue.Year(), s.Year)
			assert.Equal(t, tt.wantDue.Month(), s.Month)
		})
	}
}

func TestStatementDates_InvalidMonth(t *testing.T) {
	_, err := StatementDates(Card{ClosingDay: 1, DueDay: 8}, 2026, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
