package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
	"lancamentos/internal/storage"
)

// StatementService reads month and card summaries.
type StatementService struct {
	repos  *storage.Repositories
	logger *log.Logger
}

func NewStatementService(repos *storage.Repositories, logger *log.Logger) *StatementService {
	if logger == nil {
		logger = log.Default()
	}
	return &StatementService{repos: repos, logger: logger.WithComponent(log.ComponentEntries)}
}

// Month totals the entries posted in year/month and groups them by grouping
// date.
func (s *StatementService) Month(ctx context.Context, year, month int) (core.MonthOverview, error) {
	if _, err := core.BuildDate(year, month, 1); err != nil {
		return core.MonthOverview{}, fmt.Errorf("%w: %w", core.ErrConstraintViolation, err)
	}
	details, err := s.repos.Entries.ListDetailed(ctx, storage.MonthQuery(year, month))
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list month entries: %w", err)
	}
	s.logger.DebugContext(ctx, "Month overview",
		log.FieldYear, year, log.FieldMonth, month, log.FieldCount, len(details))
	return core.Overview(year, month, details), nil
}

// CardStatement is one card bill.
type CardStatement struct {
	Card      core.Card
	Statement core.Statement
	Entries   []core.EntryView
	Total     decimal.Decimal
}

// CardStatement collects the entries charged to a card and posted in the
// statement month, with the statement's closing and due dates.
func (s *StatementService) CardStatement(ctx context.Context, cardID uuid.UUID, year, month int) (CardStatement, error) {
	card, err := s.repos.Cards.GetByExternalID(ctx, cardID)
	if err != nil {
		return CardStatement{}, err
	}
	st, err := core.StatementDates(card, year, month)
	if err != nil {
		return CardStatement{}, fmt.Errorf("%w: %w", core.ErrConstraintViolation, err)
	}
	q := storage.MonthQuery(year, month).And(storage.Where("cardExternalId", storage.Eq, cardID.String()))
	details, err := s.repos.Entries.ListDetailed(ctx, q)
	if err != nil {
		return CardStatement{}, fmt.Errorf("list card entries: %w", err)
	}

	out := CardStatement{Card: card, Statement: st, Total: decimal.Zero}
	for _, d := range details {
		v := core.Derive(d)
		out.Entries = append(out.Entries, v)
		out.Total = out.Total.Add(v.BalanceContribution)
	}
	return out, nil
}
