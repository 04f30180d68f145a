package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// EntryView carries the presentation-ready values derived from an entry detail.
type EntryView struct {
	Detail              EntryDetail
	SignedAmount        decimal.Decimal
	BalanceContribution decimal.Decimal
	GroupingDate        Date
	HasGroupingDate     bool
	Recurrence          Recurrence
	CreatedAt           time.Time
}

// Derive computes the derived values of a single entry.
func Derive(d EntryDetail) EntryView {
	grouping, ok := GroupingDate(d.Entry, d.Card)
	return EntryView{
		Detail:              d,
		SignedAmount:        SignedAmount(d.Entry),
		BalanceContribution: BalanceContribution(d.Entry),
		GroupingDate:        grouping,
		HasGroupingDate:     ok,
		Recurrence:          d.Entry.Recurrence(),
		CreatedAt:           CreationDate(d.Entry),
	}
}

// StatementGroup is a bucket of entries sharing a grouping date.
type StatementGroup struct {
	Date    Date
	Known   bool
	Entries []EntryView
	Total   decimal.Decimal
}

// GroupByStatement buckets entries by grouping date, newest first. Entries whose
// grouping date cannot be built land in a trailing group with Known=false.
// Within a group entries keep their input order.
func GroupByStatement(details []EntryDetail) []StatementGroup {
	index := make(map[string]int)
	var groups []StatementGroup
	var unknown *StatementGroup

	for _, d := range details {
		v := Derive(d)
		if !v.HasGroupingDate {
			if unknown == nil {
				unknown = &StatementGroup{Total: decimal.Zero}
			}
			unknown.Entries = append(unknown.Entries, v)
			unknown.Total = unknown.Total.Add(v.BalanceContribution)
			continue
		}
		key := v.GroupingDate.Format(LayoutLegacy)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, StatementGroup{Date: v.GroupingDate, Known: true, Total: decimal.Zero})
		}
		groups[i].Entries = append(groups[i].Entries, v)
		groups[i].Total = groups[i].Total.Add(v.BalanceContribution)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date.After(groups[b].Date.Time)
	})
	if unknown != nil {
		groups = append(groups, *unknown)
	}
	return groups
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year    int
	Month   int // 1-12
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Groups  []StatementGroup
}

// Overview totals the contributions of the month's entries and groups them.
func Overview(year, month int, details []EntryDetail) MonthOverview {
	o := MonthOverview{
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
		Balance: decimal.Zero,
	}
	for _, d := range details {
		c := BalanceContribution(d.Entry)
		if d.Entry.Kind == Expense {
			o.Expense = o.Expense.Add(c.Neg())
		} else {
			o.Income = o.Income.Add(c)
		}
		o.Balance = o.Balance.Add(c)
	}
	o.Groups = GroupByStatement(details)
	return o
}
