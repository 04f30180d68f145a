package core

// EntryFilter is the list filter offered on the entries screen.
type EntryFilter int

const (
	EntryFilterAll EntryFilter = iota
	EntryFilterInstallment
	EntryFilterRecurring
	EntryFilterPaid
	EntryFilterUnpaid
)

type CardFilter int

const (
	CardFilterActive CardFilter = iota
	CardFilterArchived
)

type KindFilter int

const (
	KindFilterAll KindFilter = iota
	KindFilterIncome
	KindFilterExpense
)

// Kind returns the single kind selected, if any.
func (k KindFilter) Kind() (Kind, bool) {
	switch k {
	case KindFilterIncome:
		return Income, true
	case KindFilterExpense:
		return Expense, true
	}
	return 0, false
}
