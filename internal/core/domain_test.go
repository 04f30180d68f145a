package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCard() Card {
	return Card{
		ExternalID:        uuid.New(),
		Name:              "Nubank",
		DueDay:            10,
		ClosingDay:        3,
		Issuer:            IssuerMastercard,
		CreditLimit:       decimal.RequireFromString("5000.00"),
		AccountExternalID: uuid.New(),
	}
}

func validEntry() Entry {
	return Entry{
		ExternalID:        uuid.New(),
		Description:       "Mercado",
		Kind:              Expense,
		Posting:           DayMonthYear{Day: 5, Month: 3, Year: 2026},
		CategoryID:        1,
		Amount:            decimal.RequireFromString("100.00"),
		AccountExternalID: uuid.New(),
		CurrencyCode:      DefaultCurrency,
	}
}

func TestCardValidate_DayRanges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr bool
	}{
		{"valid", func(c *Card) {}, false},
		{"due day 31", func(c *Card) { c.DueDay = 31 }, false},
		{"closing day 1", func(c *Card) { c.ClosingDay = 1 }, false},
		{"due day 0", func(c *Card) { c.DueDay = 0 }, true},
		{"due day 32", func(c *Card) { c.DueDay = 32 }, true},
		{"closing day 0", func(c *Card) { c.ClosingDay = 0 }, true},
		{"closing day 40", func(c *Card) { c.ClosingDay = 40 }, true},
		{"unknown issuer", func(c *Card) { c.Issuer = "discover" }, true},
		{"negative limit", func(c *Card) { c.CreditLimit = decimal.NewFromInt(-1) }, true},
		{"no account", func(c *Card) { c.AccountExternalID = uuid.Nil }, true},
		{"empty name", func(c *Card) { c.Name = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCard()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConstraintViolation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntryValidate(t *testing.T) {
	require.NoError(t, validEntry().Validate())

	bads := map[string]func(*Entry){
		"zero amount":       func(e *Entry) { e.Amount = decimal.Zero },
		"negative amount":   func(e *Entry) { e.Amount = decimal.NewFromInt(-3) },
		"posting month 13":  func(e *Entry) { e.Posting.Month = 13 },
		"posting day 0":     func(e *Entry) { e.Posting.Day = 0 },
		"bad purchase date": func(e *Entry) { e.Purchase = DayMonthYear{Day: 1, Month: 0, Year: 2026} },
		"no category":       func(e *Entry) { e.CategoryID = 0 },
		"no account":        func(e *Entry) { e.AccountExternalID = uuid.Nil },
		"no external id":    func(e *Entry) { e.ExternalID = uuid.Nil },
		"unknown kind":      func(e *Entry) { e.Kind = Kind(7) },
		"bad currency":      func(e *Entry) { e.CurrencyCode = "REAL" },
		"recurrence code 9": func(e *Entry) { e.RecurrenceCode = 9 },
	}
	for name, mutate := range bads {
		t.Run(name, func(t *testing.T) {
			e := validEntry()
			mutate(&e)
			assert.ErrorIs(t, e.Validate(), ErrConstraintViolation)
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	parent := int64(4)
	c := Category{ID: 4, RawName: "Casa", Kind: Expense, Color: Color{R: 0.2, G: 0.4, B: 0.6, A: 1}, ParentID: &parent}
	assert.ErrorIs(t, c.Validate(), ErrCategorySelfParent)

	c.ParentID = nil
	require.NoError(t, c.Validate())

	c.Color.A = 1.5
	assert.ErrorIs(t, c.Validate(), ErrConstraintViolation)
}

func TestCategoryDisplayName(t *testing.T) {
	sub := "Aluguel"
	assert.Equal(t, "Casa", Category{RawName: "Casa"}.DisplayName())
	assert.Equal(t, "Aluguel", Category{RawName: "Casa", SubcategoryName: &sub}.DisplayName())
}
