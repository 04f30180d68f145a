package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settings.json"), log.Discard())
	require.NoError(t, err)
	return s
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := openStore(t)
	assert.Empty(t, s.Keys())
	_, ok := s.Get("anything")
	assert.False(t, ok)

	_, err := os.Stat(s.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_SetPersists(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Set(ctx, "theme", json.RawMessage(`"dark"`)))
	require.NoError(t, s.Set(ctx, "currency", json.RawMessage(`"BRL"`)))

	reopened, err := Open(s.Path(), log.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"currency", "theme"}, reopened.Keys())
	v, ok := reopened.Get("theme")
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(v))

	err = s.Set(ctx, "broken", json.RawMessage(`{not json`))
	assert.ErrorIs(t, err, core.ErrConstraintViolation)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Set(ctx, "a", json.RawMessage(`1`)))
	require.NoError(t, s.Set(ctx, "b", json.RawMessage(`2`)))

	require.NoError(t, s.Reset(ctx, "a", "missing"))
	assert.Equal(t, []string{"b"}, s.Keys())
	require.NoError(t, s.Reset(ctx, "a"))

	reopened, err := Open(s.Path(), log.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, reopened.Keys())
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2"), 0o644))
	_, err := Open(path, log.Discard())
	assert.ErrorIs(t, err, core.ErrParseFailure)
}

func TestStore_DefaultPaymentMethod(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, ok, err := s.DefaultPaymentMethod(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	card := uuid.New()
	require.NoError(t, s.SetDefaultPaymentMethod(ctx, core.CardPayment(card)))
	pm, ok, err := s.DefaultPaymentMethod(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.PaymentCard, pm.Kind)
	assert.Equal(t, card, pm.ExternalID())

	raw, _ := s.Get(core.DefaultPaymentMethodKey)
	assert.JSONEq(t, `{"kind":"card","card":{"externalId":"`+card.String()+`"}}`, string(raw))

	require.NoError(t, s.ClearDefaultPaymentMethod(ctx))
	_, ok, err = s.DefaultPaymentMethod(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.SetDefaultPaymentMethod(ctx, core.PaymentMethod{Kind: core.PaymentAccount})
	assert.ErrorIs(t, err, core.ErrConstraintViolation)
}

func TestStore_UnreadableDefaultPaymentMethod(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Set(ctx, core.DefaultPaymentMethodKey, json.RawMessage(`{"kind":"cash"}`)))

	_, ok, err := s.DefaultPaymentMethod(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, core.ErrParseFailure)
}
