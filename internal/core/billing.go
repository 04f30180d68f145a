package core

// Statement identifies a card bill by the month its due date falls in.
type Statement struct {
	Year    int
	Month   int
	Closing Date
	Due     Date
}

// StatementDates returns the closing and due dates of the card statement due in
// year/month. When the due day is not after the closing day the statement
// closes in the previous month.
func StatementDates(card Card, year, month int) (Statement, error) {
	due, err := BuildDate(year, month, card.DueDay)
	if err != nil {
		return Statement{}, err
	}
	closingMonth := NewDate(year, month, 1)
	if card.DueDay <= card.ClosingDay {
		closingMonth = closingMonth.AddMonths(-1)
	}
	closing, err := BuildDate(closingMonth.Year(), closingMonth.Month(), card.ClosingDay)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Year: year, Month: month, Closing: closing, Due: due}, nil
}

// StatementFor returns the statement a purchase made on the given date is billed
// in. Purchases after the closing day roll into the next cycle.
func StatementFor(card Card, purchase Date) (Statement, error) {
	closing, err := BuildDate(purchase.Year(), purchase.Month(), card.ClosingDay)
	if err != nil {
		return Statement{}, err
	}
	cycle := NewDate(closing.Year(), closing.Month(), 1)
	if purchase.Day() > closing.Day() {
		cycle = cycle.AddMonths(1)
	}
	if card.DueDay <= card.ClosingDay {
		cycle = cycle.AddMonths(1)
	}
	return StatementDates(card, cycle.Year(), cycle.Month())
}
