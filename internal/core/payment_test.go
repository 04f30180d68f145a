package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePaymentMethod_Card(t *testing.T) {
	id := uuid.MustParse("6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f")
	data, err := EncodePaymentMethod(CardPayment(id))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"card","card":{"externalId":"6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f"}}`, string(data))

	got, err := DecodePaymentMethod(data)
	require.NoError(t, err)
	assert.Equal(t, PaymentCard, got.Kind)
	assert.Equal(t, id, got.ExternalID())
	assert.Nil(t, got.Account)
}

func TestEncodePaymentMethod_Account(t *testing.T) {
	id := uuid.New()
	data, err := EncodePaymentMethod(AccountPayment(id))
	require.NoError(t, err)

	got, err := DecodePaymentMethod(data)
	require.NoError(t, err)
	assert.Equal(t, AccountPayment(id), got)
}

func TestEncodePaymentMethod_RejectsAmbiguousValue(t *testing.T) {
	p := CardPayment(uuid.New())
	p.Account = &PaymentRef{ExternalID: uuid.New()}
	_, err := EncodePaymentMethod(p)
	assert.ErrorIs(t, err, ErrConstraintViolation)
}

func TestDecodePaymentMethod_Invalid(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"kind":"pix","card":{"externalId":"6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f"}}`,
		`{"kind":"card","account":{"externalId":"6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f"}}`,
		`{"kind":"account"}`,
		`{"kind":"card","card":{"externalId":"00000000-0000-0000-0000-000000000000"}}`,
		`{"kind":"card","card":{"externalId":"zzz"}}`,
	}
	for _, in := range inputs {
		_, err := DecodePaymentMethod([]byte(in))
		assert.ErrorIs(t, err, ErrParseFailure, "input %s", in)
	}
}
