package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind separates income from expense. The integer values are the ones persisted
// in the tipo columns.
type Kind int

const (
	Income  Kind = 0
	Expense Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Issuer is the card network. Persisted as its lower-case name.
type Issuer string

const (
	IssuerVisa       Issuer = "visa"
	IssuerMastercard Issuer = "mastercard"
	IssuerAmex       Issuer = "amex"
	IssuerDiners     Issuer = "diners"
	IssuerHipercard  Issuer = "hipercard"
	IssuerElo        Issuer = "elo"
	IssuerOther      Issuer = "other"
)

func (i Issuer) IsValid() bool {
	switch i {
	case IssuerVisa, IssuerMastercard, IssuerAmex, IssuerDiners, IssuerHipercard, IssuerElo, IssuerOther:
		return true
	}
	return false
}

const DefaultCurrency = "BRL"

type (
	Account struct {
		ID           int64
		ExternalID   uuid.UUID
		Name         string `validate:"required,max=100"`
		Balance      decimal.Decimal
		CurrencyCode string `validate:"len=3"`
	}

	Card struct {
		ID                int64
		ExternalID        uuid.UUID
		Name              string `validate:"required,max=100"`
		DueDay            int    `validate:"min=1,max=31"`
		ClosingDay        int    `validate:"min=1,max=31"`
		Issuer            Issuer `validate:"oneof=visa mastercard amex diners hipercard elo other"`
		CreditLimit       decimal.Decimal
		Archived          bool
		AccountExternalID uuid.UUID
	}

	// Color components are fractions in [0,1].
	Color struct {
		R float64 `validate:"min=0,max=1"`
		G float64 `validate:"min=0,max=1"`
		B float64 `validate:"min=0,max=1"`
		A float64 `validate:"min=0,max=1"`
	}

	// Category is either top level (ParentID nil) or a subcategory of a top-level
	// category. Deeper nesting is rejected at the write boundary.
	Category struct {
		ID              int64
		RawName         string `validate:"required,max=100"`
		LocalizationKey *string
		SubcategoryName *string
		Kind            Kind `validate:"oneof=0 1"`
		IconIndex       int  `validate:"min=0"`
		Color           Color
		ParentID        *int64
	}

	// DayMonthYear is a calendar date stored as three integer columns. It is not
	// normalized; use BuildDate to turn it into a Date.
	DayMonthYear struct {
		Day   int
		Month int
		Year  int
	}

	// Entry is a lançamento: a single income or expense record.
	Entry struct {
		ID                int64
		ExternalID        uuid.UUID
		Description       string `validate:"max=200"`
		Note              string
		Kind              Kind `validate:"oneof=0 1"`
		IsTransfer        bool
		Posting           DayMonthYear
		Purchase          DayMonthYear
		CategoryID        int64 `validate:"gt=0"`
		CardExternalID    *uuid.UUID
		RecurrenceCode    int `validate:"min=0,max=4"`
		InstallmentCount  int `validate:"min=0"`
		InstallmentLabel  string
		Amount            decimal.Decimal
		Paid              bool
		Split             bool
		AccountExternalID uuid.UUID
		CreatedAt         string
		NotificationRead  bool
		CurrencyCode      string `validate:"len=3"`
	}

	// EntryDetail is an entry with its related records attached. Card and Account
	// are nil when the reference is empty or dangling.
	EntryDetail struct {
		Entry    Entry
		Category *Category
		Card     *Card
		Account  *Account
	}
)

var validate = validator.New()

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid %s", ErrConstraintViolation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return nil
}

func (a Account) Validate() error {
	if err := validateStruct(a); err != nil {
		return err
	}
	if a.ExternalID == uuid.Nil {
		return fmt.Errorf("%w: account external id is required", ErrConstraintViolation)
	}
	return nil
}

// Validate enforces dueDay and closingDay in [1,31], a known issuer, a
// non-negative limit and a linked account.
func (c Card) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.ExternalID == uuid.Nil {
		return fmt.Errorf("%w: card external id is required", ErrConstraintViolation)
	}
	if c.CreditLimit.IsNegative() {
		return fmt.Errorf("%w: credit limit must not be negative", ErrConstraintViolation)
	}
	if c.AccountExternalID == uuid.Nil {
		return fmt.Errorf("%w: card must be linked to an account", ErrConstraintViolation)
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, ErrCategorySelfParent)
	}
	return nil
}

// IsSubcategory reports whether the category hangs under a parent.
func (c Category) IsSubcategory() bool {
	return c.ParentID != nil
}

// DisplayName prefers the subcategory name for subcategories.
func (c Category) DisplayName() string {
	if c.SubcategoryName != nil && strings.TrimSpace(*c.SubcategoryName) != "" {
		return *c.SubcategoryName
	}
	return c.RawName
}

func (e Entry) Validate() error {
	if err := validateStruct(e); err != nil {
		return err
	}
	if e.ExternalID == uuid.Nil {
		return fmt.Errorf("%w: entry external id is required", ErrConstraintViolation)
	}
	if err := e.Posting.Validate(); err != nil {
		return fmt.Errorf("%w: posting date: %w", ErrConstraintViolation, err)
	}
	if !e.Purchase.IsZero() {
		if err := e.Purchase.Validate(); err != nil {
			return fmt.Errorf("%w: purchase date: %w", ErrConstraintViolation, err)
		}
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, ErrInvalidAmount)
	}
	if e.AccountExternalID == uuid.Nil {
		return fmt.Errorf("%w: entry must reference an account", ErrConstraintViolation)
	}
	return nil
}

// Recurrence maps the stored code, see RecurrenceKind.
func (e Entry) Recurrence() Recurrence {
	return RecurrenceKind(e.RecurrenceCode)
}

// HasCard reports whether the entry was charged to a card.
func (e Entry) HasCard() bool {
	return e.CardExternalID != nil && *e.CardExternalID != uuid.Nil
}

func (d DayMonthYear) IsZero() bool {
	return d.Day == 0 && d.Month == 0 && d.Year == 0
}

// Validate checks each component range. Day-of-month overflow (31 in April) is
// accepted here and clamped when the date is built.
func (d DayMonthYear) Validate() error {
	if d.Day < 1 || d.Day > 31 {
		return ErrInvalidDay
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidMonth
	}
	if d.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}
