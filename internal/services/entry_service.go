package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
	"lancamentos/internal/storage"
)

// MaxInstallments caps installment plans.
const MaxInstallments = 420

// PaymentDefaults provides the payment method preselected for new entries.
type PaymentDefaults interface {
	DefaultPaymentMethod(ctx context.Context) (core.PaymentMethod, bool, error)
}

// NewEntry is what a user fills in to record an entry. Purchase defaults to
// Posting; a nil Payment uses the stored default payment method.
type NewEntry struct {
	Description  string
	Note         string
	Kind         core.Kind
	Posting      core.DayMonthYear
	Purchase     core.DayMonthYear
	CategoryID   int64
	Payment      *core.PaymentMethod
	Recurrence   core.Recurrence
	Amount       decimal.Decimal
	Paid         bool
	Split        bool
	CurrencyCode string
}

// Transfer moves money between two accounts.
type Transfer struct {
	From        uuid.UUID
	To          uuid.UUID
	Amount      decimal.Decimal
	Posting     core.DayMonthYear
	CategoryID  int64
	Description string
}

// EntryService creates entries: it assigns external ids and creation
// timestamps, resolves payment methods and expands installment plans.
type EntryService struct {
	repos    *storage.Repositories
	defaults PaymentDefaults
	logger   *log.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

func NewEntryService(repos *storage.Repositories, defaults PaymentDefaults, logger *log.Logger) *EntryService {
	if logger == nil {
		logger = log.Default()
	}
	return &EntryService{
		repos:    repos,
		defaults: defaults,
		logger:   logger.WithComponent(log.ComponentEntries),
		now:      time.Now,
		newID:    uuid.New,
	}
}

// Create records a single entry. Installment plans go through
// CreateInstallments.
func (s *EntryService) Create(ctx context.Context, ne NewEntry) (core.Entry, error) {
	if ne.Recurrence == core.RecurrenceInstallment {
		return core.Entry{}, fmt.Errorf("%w: installment entries are created with CreateInstallments", core.ErrConstraintViolation)
	}
	if err := checkNewEntry(ne); err != nil {
		return core.Entry{}, err
	}

	var created core.Entry
	err := s.repos.InTx(ctx, func(ctx context.Context, tx *storage.Repositories) error {
		pay, err := s.resolvePayment(ctx, tx, ne.Payment)
		if err != nil {
			return err
		}
		e := s.build(ne, pay)
		if err := tx.Entries.Insert(ctx, &e); err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	s.logger.InfoContext(ctx, "Entry created",
		log.FieldID, created.ID,
		log.FieldExternalID, created.ExternalID.String(),
		log.FieldAmount, created.Amount.String())
	return created, nil
}

// CreateInstallments splits ne.Amount into count monthly installments labelled
// "k/count". Cents that do not divide evenly go to the first installment.
// Either every installment is stored or none.
func (s *EntryService) CreateInstallments(ctx context.Context, ne NewEntry, count int) ([]core.Entry, error) {
	if count < 2 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: installment count %d outside 2..%d", core.ErrConstraintViolation, count, MaxInstallments)
	}
	if err := checkNewEntry(ne); err != nil {
		return nil, err
	}
	start, err := core.BuildDate(ne.Posting.Year, ne.Posting.Month, ne.Posting.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: posting date: %w", core.ErrConstraintViolation, err)
	}
	dates, err := Schedule(start, core.RecurrenceInstallment, count)
	if err != nil {
		return nil, err
	}
	amounts := SplitAmount(ne.Amount, count)
	if ne.Purchase.IsZero() {
		ne.Purchase = ne.Posting
	}
	ne.Recurrence = core.RecurrenceInstallment

	created := make([]core.Entry, 0, count)
	err = s.repos.InTx(ctx, func(ctx context.Context, tx *storage.Repositories) error {
		pay, err := s.resolvePayment(ctx, tx, ne.Payment)
		if err != nil {
			return err
		}
		for i, d := range dates {
			part := ne
			part.Amount = amounts[i]
			part.Posting = core.DayMonthYear{Day: d.Day(), Month: d.Month(), Year: d.Year()}
			e := s.build(part, pay)
			e.InstallmentCount = count
			e.InstallmentLabel = fmt.Sprintf("%d/%d", i+1, count)
			if err := tx.Entries.Insert(ctx, &e); err != nil {
				return fmt.Errorf("installment %s: %w", e.InstallmentLabel, err)
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create installments: %w", err)
	}

	s.logger.InfoContext(ctx, "Installments created",
		log.FieldInstallments, count,
		log.FieldAmount, ne.Amount.String())
	return created, nil
}

// CreateTransfer records a transfer as an expense on the source account and an
// income on the destination, both flagged as transfers.
func (s *EntryService) CreateTransfer(ctx context.Context, t Transfer) ([]core.Entry, error) {
	if t.From == t.To {
		return nil, fmt.Errorf("%w: transfer between the same account", core.ErrConstraintViolation)
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		desc = "Transfer"
	}

	var created []core.Entry
	err := s.repos.InTx(ctx, func(ctx context.Context, tx *storage.Repositories) error {
		for _, leg := range []struct {
			account uuid.UUID
			kind    core.Kind
		}{
			{t.From, core.Expense},
			{t.To, core.Income},
		} {
			pay, err := s.resolvePayment(ctx, tx, paymentPtr(core.AccountPayment(leg.account)))
			if err != nil {
				return err
			}
			e := s.build(NewEntry{
				Description: desc,
				Kind:        leg.kind,
				Posting:     t.Posting,
				CategoryID:  t.CategoryID,
				Amount:      t.Amount,
				Paid:        true,
			}, pay)
			e.IsTransfer = true
			if err := tx.Entries.Insert(ctx, &e); err != nil {
				return err
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}
	s.logger.InfoContext(ctx, "Transfer created", log.FieldAmount, t.Amount.String())
	return created, nil
}

type resolvedPayment struct {
	card     *uuid.UUID
	account  uuid.UUID
	currency string
}

// resolvePayment turns a payment method into the entry's card and account
// references. Card payments are booked on the card's account.
func (s *EntryService) resolvePayment(ctx context.Context, tx *storage.Repositories, pm *core.PaymentMethod) (resolvedPayment, error) {
	if pm == nil {
		if s.defaults == nil {
			return resolvedPayment{}, fmt.Errorf("%w: no payment method given and no default configured", core.ErrConstraintViolation)
		}
		def, ok, err := s.defaults.DefaultPaymentMethod(ctx)
		if err != nil {
			return resolvedPayment{}, fmt.Errorf("load default payment method: %w", err)
		}
		if !ok {
			return resolvedPayment{}, fmt.Errorf("%w: no payment method given and no default configured", core.ErrConstraintViolation)
		}
		pm = &def
	}

	var out resolvedPayment
	switch pm.Kind {
	case core.PaymentCard:
		card, err := tx.Cards.GetByExternalID(ctx, pm.ExternalID())
		if err != nil {
			return out, fmt.Errorf("%w: card: %w", core.ErrConstraintViolation, err)
		}
		if card.Archived {
			return out, fmt.Errorf("%w: card %s is archived", core.ErrConstraintViolation, card.Name)
		}
		id := card.ExternalID
		out.card = &id
		out.account = card.AccountExternalID
	case core.PaymentAccount:
		out.account = pm.ExternalID()
	default:
		return out, fmt.Errorf("%w: unknown payment method kind %q", core.ErrConstraintViolation, pm.Kind)
	}

	account, err := tx.Accounts.GetByExternalID(ctx, out.account)
	if err != nil {
		return out, fmt.Errorf("%w: account: %w", core.ErrConstraintViolation, err)
	}
	out.currency = account.CurrencyCode
	return out, nil
}

func (s *EntryService) build(ne NewEntry, pay resolvedPayment) core.Entry {
	purchase := ne.Purchase
	if purchase.IsZero() {
		purchase = ne.Posting
	}
	currency := ne.CurrencyCode
	if currency == "" {
		currency = pay.currency
	}
	return core.Entry{
		ExternalID:        s.newID(),
		Description:       strings.TrimSpace(ne.Description),
		Note:              ne.Note,
		Kind:              ne.Kind,
		Posting:           ne.Posting,
		Purchase:          purchase,
		CategoryID:        ne.CategoryID,
		CardExternalID:    pay.card,
		RecurrenceCode:    int(ne.Recurrence),
		Amount:            ne.Amount,
		Paid:              ne.Paid,
		Split:             ne.Split,
		AccountExternalID: pay.account,
		CreatedAt:         core.FormatCreationTimestamp(s.now()),
		CurrencyCode:      currency,
	}
}

func checkNewEntry(ne NewEntry) error {
	if strings.TrimSpace(ne.Description) == "" {
		return fmt.Errorf("%w: %w", core.ErrConstraintViolation, core.ErrEmptyDescription)
	}
	if !ne.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", core.ErrConstraintViolation, core.ErrInvalidAmount)
	}
	return nil
}

// SplitAmount divides total into n parts with two decimals. The parts add up to
// total; the remainder goes to the first part.
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	parts := make([]decimal.Decimal, n)
	if n == 0 {
		return parts
	}
	base := total.Div(decimal.NewFromInt(int64(n))).Truncate(core.AmountScale)
	rest := total.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	for i := range parts {
		parts[i] = base
	}
	parts[0] = base.Add(rest)
	return parts
}

func paymentPtr(p core.PaymentMethod) *core.PaymentMethod { return &p }
