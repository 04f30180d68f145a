package storage

import (
	"context"

	"github.com/google/uuid"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

const accountColumns = "id, uuid, nome, saldo, moeda"

var accountFields = fieldMap{
	"id":         "id",
	"externalId": "uuid",
	"name":       "nome",
	"currency":   "moeda",
}

type Accounts struct {
	db     DBTX
	logger *log.Logger
}

func scanAccount(s scanner) (core.Account, error) {
	var a core.Account
	err := s.Scan(&a.ID, &a.ExternalID, &a.Name, &a.Balance, &a.CurrencyCode)
	return a, err
}

func (r *Accounts) List(ctx context.Context, q Query) ([]core.Account, error) {
	return list(ctx, r.db, "account", accountColumns, accountFields, q, scanAccount)
}

func (r *Accounts) Get(ctx context.Context, id int64) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM account WHERE id = ?", id))
	if err != nil {
		return core.Account{}, readErr("get account", err)
	}
	return a, nil
}

func (r *Accounts) GetByExternalID(ctx context.Context, id uuid.UUID) (core.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM account WHERE uuid = ?", id))
	if err != nil {
		return core.Account{}, readErr("get account by external id", err)
	}
	return a, nil
}

// Insert stores a and sets a.ID. An empty currency defaults to BRL.
func (r *Accounts) Insert(ctx context.Context, a *core.Account) error {
	if a.CurrencyCode == "" {
		a.CurrencyCode = core.DefaultCurrency
	}
	if err := a.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO account (uuid, nome, saldo, moeda) VALUES (?, ?, ?, ?)",
		a.ExternalID, a.Name, amountArg(a.Balance), a.CurrencyCode)
	if err != nil {
		return writeErr("insert account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return writeErr("insert account", err)
	}
	a.ID = id
	r.logger.DebugContext(ctx, "Account inserted", log.NewFields().WithOperation(log.OpCreate).WithEntity("account", id).ToSlice()...)
	return nil
}

func (r *Accounts) Update(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE account SET uuid = ?, nome = ?, saldo = ?, moeda = ? WHERE id = ?",
		a.ExternalID, a.Name, amountArg(a.Balance), a.CurrencyCode, a.ID)
	if err != nil {
		return writeErr("update account", err)
	}
	if err := affectedOne("update account", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Account updated",
		log.NewFields().WithOperation(log.OpUpdate).WithEntity("account", a.ID).ToSlice()...)
	return nil
}

// Delete removes the account. Cards and entries keep its external id.
func (r *Accounts) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	if err != nil {
		return writeErr("delete account", err)
	}
	if err := affectedOne("delete account", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Account deleted", log.NewFields().WithOperation(log.OpDelete).WithEntity("account", id).ToSlice()...)
	return nil
}

func (r *Accounts) existsByExternalID(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM account WHERE uuid = ?", id)
}
