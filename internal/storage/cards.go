package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

const cardColumns = "id, uuid, nome, vencimento, fechamento, bandeira, limite, arquivado, conta_uuid"

var cardFields = fieldMap{
	"id":                "id",
	"externalId":        "uuid",
	"name":              "nome",
	"dueDay":            "vencimento",
	"closingDay":        "fechamento",
	"issuer":            "bandeira",
	"archived":          "arquivado",
	"accountExternalId": "conta_uuid",
}

type Cards struct {
	db     DBTX
	logger *log.Logger
}

func scanCard(s scanner) (core.Card, error) {
	var (
		c      core.Card
		issuer string
	)
	err := s.Scan(&c.ID, &c.ExternalID, &c.Name, &c.DueDay, &c.ClosingDay, &issuer,
		&c.CreditLimit, &c.Archived, &c.AccountExternalID)
	c.Issuer = core.Issuer(issuer)
	return c, err
}

func (r *Cards) List(ctx context.Context, q Query) ([]core.Card, error) {
	return list(ctx, r.db, "cartao", cardColumns, cardFields, q, scanCard)
}

func (r *Cards) Get(ctx context.Context, id int64) (core.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cartao WHERE id = ?", id))
	if err != nil {
		return core.Card{}, readErr("get card", err)
	}
	return c, nil
}

func (r *Cards) GetByExternalID(ctx context.Context, id uuid.UUID) (core.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx,
		"SELECT "+cardColumns+" FROM cartao WHERE uuid = ?", id))
	if err != nil {
		return core.Card{}, readErr("get card by external id", err)
	}
	return c, nil
}

// Insert stores c and sets c.ID. The linked account must exist.
func (r *Cards) Insert(ctx context.Context, c *core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.checkAccount(ctx, c.AccountExternalID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cartao (uuid, nome, vencimento, fechamento, bandeira, limite, arquivado, conta_uuid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ExternalID, c.Name, c.DueDay, c.ClosingDay, string(c.Issuer), amountArg(c.CreditLimit), c.Archived, c.AccountExternalID)
	if err != nil {
		return writeErr("insert card", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return writeErr("insert card", err)
	}
	c.ID = id
	r.logger.DebugContext(ctx, "Card inserted", log.NewFields().WithOperation(log.OpCreate).WithEntity("card", id).ToSlice()...)
	return nil
}

// Update rewrites c. The account link is only checked when it changes, so a
// card whose account was deleted can still be edited.
func (r *Cards) Update(ctx context.Context, c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	current, err := r.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if current.AccountExternalID != c.AccountExternalID {
		if err := r.checkAccount(ctx, c.AccountExternalID); err != nil {
			return err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE cartao SET uuid = ?, nome = ?, vencimento = ?, fechamento = ?, bandeira = ?,
		limite = ?, arquivado = ?, conta_uuid = ? WHERE id = ?`,
		c.ExternalID, c.Name, c.DueDay, c.ClosingDay, string(c.Issuer), amountArg(c.CreditLimit), c.Archived,
		c.AccountExternalID, c.ID)
	if err != nil {
		return writeErr("update card", err)
	}
	if err := affectedOne("update card", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Card updated",
		log.NewFields().WithOperation(log.OpUpdate).WithEntity("card", c.ID).ToSlice()...)
	return nil
}

// SetArchived moves a card between the active and archived lists.
func (r *Cards) SetArchived(ctx context.Context, id int64, archived bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cartao SET arquivado = ? WHERE id = ?", archived, id)
	if err != nil {
		return writeErr("archive card", err)
	}
	return affectedOne("archive card", res)
}

// Delete removes the card. Entries charged to it keep its external id.
func (r *Cards) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cartao WHERE id = ?", id)
	if err != nil {
		return writeErr("delete card", err)
	}
	if err := affectedOne("delete card", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Card deleted", log.NewFields().WithOperation(log.OpDelete).WithEntity("card", id).ToSlice()...)
	return nil
}

func (r *Cards) checkAccount(ctx context.Context, id uuid.UUID) error {
	ok, err := exists(ctx, r.db, "SELECT 1 FROM account WHERE uuid = ?", id)
	if err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: account %s does not exist", core.ErrConstraintViolation, id)
	}
	return nil
}

func (r *Cards) existsByExternalID(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM cartao WHERE uuid = ?", id)
}
