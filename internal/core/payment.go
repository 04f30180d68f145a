package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultPaymentMethodKey is the settings key holding the encoded default
// payment method.
const DefaultPaymentMethodKey = "defaultPaymentMethod"

type PaymentMethodKind string

const (
	PaymentCard    PaymentMethodKind = "card"
	PaymentAccount PaymentMethodKind = "account"
)

// PaymentMethod is either a card or an account reference. Exactly one of Card
// and Account is set, matching Kind.
type PaymentMethod struct {
	Kind    PaymentMethodKind
	Card    *PaymentRef
	Account *PaymentRef
}

type PaymentRef struct {
	ExternalID uuid.UUID `json:"externalId"`
}

func CardPayment(id uuid.UUID) PaymentMethod {
	return PaymentMethod{Kind: PaymentCard, Card: &PaymentRef{ExternalID: id}}
}

func AccountPayment(id uuid.UUID) PaymentMethod {
	return PaymentMethod{Kind: PaymentAccount, Account: &PaymentRef{ExternalID: id}}
}

// ExternalID returns the referenced card or account id.
func (p PaymentMethod) ExternalID() uuid.UUID {
	switch p.Kind {
	case PaymentCard:
		if p.Card != nil {
			return p.Card.ExternalID
		}
	case PaymentAccount:
		if p.Account != nil {
			return p.Account.ExternalID
		}
	}
	return uuid.Nil
}

type paymentMethodWire struct {
	Kind    PaymentMethodKind `json:"kind"`
	Card    *PaymentRef       `json:"card,omitempty"`
	Account *PaymentRef       `json:"account,omitempty"`
}

func (p PaymentMethod) validate() error {
	switch p.Kind {
	case PaymentCard:
		if p.Card == nil || p.Account != nil {
			return fmt.Errorf("card payment method must carry only a card reference")
		}
	case PaymentAccount:
		if p.Account == nil || p.Card != nil {
			return fmt.Errorf("account payment method must carry only an account reference")
		}
	default:
		return fmt.Errorf("unknown payment method kind %q", p.Kind)
	}
	if p.ExternalID() == uuid.Nil {
		return fmt.Errorf("payment method reference is empty")
	}
	return nil
}

// EncodePaymentMethod serializes p as {"kind":...,"card"|"account":{"externalId":...}}.
func EncodePaymentMethod(p PaymentMethod) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return json.Marshal(paymentMethodWire(p))
}

// DecodePaymentMethod is the inverse of EncodePaymentMethod. The kind tag
// decides which payload is read; mismatched payloads are rejected.
func DecodePaymentMethod(data []byte) (PaymentMethod, error) {
	var w paymentMethodWire
	if err := json.Unmarshal(data, &w); err != nil {
		return PaymentMethod{}, fmt.Errorf("%w: payment method: %w", ErrParseFailure, err)
	}
	p := PaymentMethod(w)
	if err := p.validate(); err != nil {
		return PaymentMethod{}, fmt.Errorf("%w: payment method: %w", ErrParseFailure, err)
	}
	return p, nil
}
