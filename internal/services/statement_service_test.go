package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

func TestStatementService_Month(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	entries := env.service(nil)

	salary := env.newEntry()
	salary.Description = "Salário"
	salary.Kind = core.Income
	salary.Amount = dec("5000")
	salary.Posting.Day = 1
	_, err := entries.Create(ctx, salary)
	require.NoError(t, err)

	dinner := env.newEntry()
	dinner.Description = "Jantar"
	dinner.Amount = dec("300")
	dinner.Split = true
	pm := core.CardPayment(env.card.ExternalID)
	dinner.Payment = &pm
	_, err = entries.Create(ctx, dinner)
	require.NoError(t, err)

	other := env.newEntry()
	other.Posting.Month = 3
	_, err = entries.Create(ctx, other)
	require.NoError(t, err)

	overview, err := NewStatementService(env.repos, log.Discard()).Month(ctx, 2026, 2)
	require.NoError(t, err)
	assert.True(t, overview.Income.Equal(dec("5000")), overview.Income.String())
	assert.True(t, overview.Expense.Equal(dec("150")), overview.Expense.String())
	assert.True(t, overview.Balance.Equal(dec("4850")), overview.Balance.String())

	require.Len(t, overview.Groups, 2)
	// card due day 10 groups the dinner after the salary posted on the 1st
	assert.Equal(t, core.NewDate(2026, 2, 10), overview.Groups[0].Date)
	assert.Equal(t, "Jantar", overview.Groups[0].Entries[0].Detail.Entry.Description)
	assert.Equal(t, core.NewDate(2026, 2, 1), overview.Groups[1].Date)

	_, err = NewStatementService(env.repos, log.Discard()).Month(ctx, 2026, 13)
	assert.ErrorIs(t, err, core.ErrConstraintViolation)
}

func TestStatementService_CardStatement(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	entries := env.service(nil)

	pm := core.CardPayment(env.card.ExternalID)
	onCard := env.newEntry()
	onCard.Description = "Farmácia"
	onCard.Amount = dec("42.10")
	onCard.Payment = &pm
	_, err := entries.Create(ctx, onCard)
	require.NoError(t, err)
	_, err = entries.Create(ctx, env.newEntry())
	require.NoError(t, err)

	svc := NewStatementService(env.repos, log.Discard())
	st, err := svc.CardStatement(ctx, env.card.ExternalID, 2026, 2)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2026, 2, 10), st.Statement.Due)
	assert.Equal(t, core.NewDate(2026, 2, 3), st.Statement.Closing)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, "Farmácia", st.Entries[0].Detail.Entry.Description)
	assert.True(t, st.Total.Equal(dec("-42.10")))

	_, err = svc.CardStatement(ctx, uuid.New(), 2026, 2)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
