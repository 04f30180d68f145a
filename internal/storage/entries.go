package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

const entryColumns = `id, uuid, descricao, nota, tipo, transferencia, dia, mes, ano, dia_compra, mes_compra,
	ano_compra, categoria_id, cartao_uuid, repetir, parcelas, parcela_label, valor, pago, dividido, conta_uuid,
	criado_em, notificacao_lida, moeda`

var entryFields = fieldMap{
	"id":                "id",
	"externalId":        "uuid",
	"description":       "descricao",
	"kind":              "tipo",
	"isTransfer":        "transferencia",
	"postingDay":        "dia",
	"postingMonth":      "mes",
	"postingYear":       "ano",
	"purchaseDay":       "dia_compra",
	"purchaseMonth":     "mes_compra",
	"purchaseYear":      "ano_compra",
	"categoryId":        "categoria_id",
	"cardExternalId":    "cartao_uuid",
	"recurrence":        "repetir",
	"installments":      "parcelas",
	"paid":              "pago",
	"split":             "dividido",
	"accountExternalId": "conta_uuid",
	"createdAt":         "criado_em",
	"notificationRead":  "notificacao_lida",
	"currency":          "moeda",
}

type Entries struct {
	db         DBTX
	logger     *log.Logger
	accounts   *Accounts
	cards      *Cards
	categories *Categories
}

func scanEntry(s scanner) (core.Entry, error) {
	var (
		e    core.Entry
		card uuid.NullUUID
	)
	err := s.Scan(&e.ID, &e.ExternalID, &e.Description, &e.Note, &e.Kind, &e.IsTransfer,
		&e.Posting.Day, &e.Posting.Month, &e.Posting.Year,
		&e.Purchase.Day, &e.Purchase.Month, &e.Purchase.Year,
		&e.CategoryID, &card, &e.RecurrenceCode, &e.InstallmentCount, &e.InstallmentLabel,
		&e.Amount, &e.Paid, &e.Split, &e.AccountExternalID,
		&e.CreatedAt, &e.NotificationRead, &e.CurrencyCode)
	if card.Valid && card.UUID != uuid.Nil {
		id := card.UUID
		e.CardExternalID = &id
	}
	return e, err
}

func (r *Entries) List(ctx context.Context, q Query) ([]core.Entry, error) {
	return list(ctx, r.db, "lancamento", entryColumns, entryFields, q, scanEntry)
}

func (r *Entries) Get(ctx context.Context, id int64) (core.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM lancamento WHERE id = ?", id))
	if err != nil {
		return core.Entry{}, readErr("get entry", err)
	}
	return e, nil
}

func (r *Entries) GetByExternalID(ctx context.Context, id uuid.UUID) (core.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM lancamento WHERE uuid = ?", id))
	if err != nil {
		return core.Entry{}, readErr("get entry by external id", err)
	}
	return e, nil
}

// Insert stores e and sets e.ID. Category, account and card (when set) must
// exist.
func (r *Entries) Insert(ctx context.Context, e *core.Entry) error {
	if e.CurrencyCode == "" {
		e.CurrencyCode = core.DefaultCurrency
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := r.checkReferences(ctx, *e, nil); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lancamento (uuid, descricao, nota, tipo, transferencia, dia, mes, ano, dia_compra, mes_compra,
		ano_compra, categoria_id, cartao_uuid, repetir, parcelas, parcela_label, valor, pago, dividido, conta_uuid,
		criado_em, notificacao_lida, moeda)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryArgs(*e)...)
	if err != nil {
		return writeErr("insert entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return writeErr("insert entry", err)
	}
	e.ID = id
	r.logger.DebugContext(ctx, "Entry inserted",
		log.NewFields().WithOperation(log.OpCreate).WithEntity("entry", id).ToSlice()...)
	return nil
}

// Update rewrites e. Account and card links are only checked when they change,
// so entries pointing at deleted cards or accounts stay editable.
func (r *Entries) Update(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	current, err := r.Get(ctx, e.ID)
	if err != nil {
		return err
	}
	if err := r.checkReferences(ctx, e, &current); err != nil {
		return err
	}
	args := append(entryArgs(e), e.ID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE lancamento SET uuid = ?, descricao = ?, nota = ?, tipo = ?, transferencia = ?, dia = ?, mes = ?,
		ano = ?, dia_compra = ?, mes_compra = ?, ano_compra = ?, categoria_id = ?, cartao_uuid = ?, repetir = ?,
		parcelas = ?, parcela_label = ?, valor = ?, pago = ?, dividido = ?, conta_uuid = ?, criado_em = ?,
		notificacao_lida = ?, moeda = ? WHERE id = ?`,
		args...)
	if err != nil {
		return writeErr("update entry", err)
	}
	if err := affectedOne("update entry", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Entry updated",
		log.NewFields().WithOperation(log.OpUpdate).WithEntity("entry", e.ID).ToSlice()...)
	return nil
}

func (r *Entries) SetPaid(ctx context.Context, id int64, paid bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE lancamento SET pago = ? WHERE id = ?", paid, id)
	if err != nil {
		return writeErr("set entry paid", err)
	}
	return affectedOne("set entry paid", res)
}

func (r *Entries) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE lancamento SET notificacao_lida = 1 WHERE id = ?", id)
	if err != nil {
		return writeErr("mark notification read", err)
	}
	return affectedOne("mark notification read", res)
}

func (r *Entries) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM lancamento WHERE id = ?", id)
	if err != nil {
		return writeErr("delete entry", err)
	}
	if err := affectedOne("delete entry", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Entry deleted", log.NewFields().WithOperation(log.OpDelete).WithEntity("entry", id).ToSlice()...)
	return nil
}

// ListDetailed lists entries matching q with their category, card and account
// attached. Each related table is read once with an IN lookup; the three
// lookups run concurrently. Dangling card or account ids leave the field nil.
func (r *Entries) ListDetailed(ctx context.Context, q Query) ([]core.EntryDetail, error) {
	entries, err := r.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var (
		categoryIDs []int64
		cardIDs     []uuid.UUID
		accountIDs  []uuid.UUID
		seenCat     = map[int64]bool{}
		seenCard    = map[uuid.UUID]bool{}
		seenAccount = map[uuid.UUID]bool{}
	)
	for _, e := range entries {
		if !seenCat[e.CategoryID] {
			seenCat[e.CategoryID] = true
			categoryIDs = append(categoryIDs, e.CategoryID)
		}
		if e.HasCard() && !seenCard[*e.CardExternalID] {
			seenCard[*e.CardExternalID] = true
			cardIDs = append(cardIDs, *e.CardExternalID)
		}
		if e.AccountExternalID != uuid.Nil && !seenAccount[e.AccountExternalID] {
			seenAccount[e.AccountExternalID] = true
			accountIDs = append(accountIDs, e.AccountExternalID)
		}
	}

	var (
		categories []core.Category
		cards      []core.Card
		accounts   []core.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	if _, inTx := r.db.(*sql.Tx); inTx {
		// a transaction owns a single connection
		g.SetLimit(1)
	}
	g.Go(func() error {
		var err error
		categories, err = r.categories.List(gctx, Query{Where: []Predicate{Where("id", In, categoryIDs)}})
		return err
	})
	if len(cardIDs) > 0 {
		g.Go(func() error {
			var err error
			cards, err = r.cards.List(gctx, Query{Where: []Predicate{Where("externalId", In, cardIDs)}})
			return err
		})
	}
	if len(accountIDs) > 0 {
		g.Go(func() error {
			var err error
			accounts, err = r.accounts.List(gctx, Query{Where: []Predicate{Where("externalId", In, accountIDs)}})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load entry relations: %w", err)
	}

	categoryByID := make(map[int64]*core.Category, len(categories))
	for i := range categories {
		categoryByID[categories[i].ID] = &categories[i]
	}
	cardByID := make(map[uuid.UUID]*core.Card, len(cards))
	for i := range cards {
		cardByID[cards[i].ExternalID] = &cards[i]
	}
	accountByID := make(map[uuid.UUID]*core.Account, len(accounts))
	for i := range accounts {
		accountByID[accounts[i].ExternalID] = &accounts[i]
	}

	details := make([]core.EntryDetail, len(entries))
	for i, e := range entries {
		d := core.EntryDetail{Entry: e, Category: categoryByID[e.CategoryID]}
		if e.HasCard() {
			d.Card = cardByID[*e.CardExternalID]
		}
		d.Account = accountByID[e.AccountExternalID]
		details[i] = d
	}
	r.logger.DebugContext(ctx, "Entries loaded", log.FieldOperation, log.OpList, log.FieldCount, len(details))
	return details, nil
}

// checkReferences verifies the links of e. With current set, only links that
// differ from the stored row are checked.
func (r *Entries) checkReferences(ctx context.Context, e core.Entry, current *core.Entry) error {
	if current == nil || current.CategoryID != e.CategoryID {
		ok, err := exists(ctx, r.db, "SELECT 1 FROM categoria WHERE id = ?", e.CategoryID)
		if err != nil {
			return fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: category %d does not exist", core.ErrConstraintViolation, e.CategoryID)
		}
	}
	if current == nil || current.AccountExternalID != e.AccountExternalID {
		ok, err := r.accounts.existsByExternalID(ctx, e.AccountExternalID)
		if err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: account %s does not exist", core.ErrConstraintViolation, e.AccountExternalID)
		}
	}
	if e.HasCard() && (current == nil || !current.HasCard() || *current.CardExternalID != *e.CardExternalID) {
		ok, err := r.cards.existsByExternalID(ctx, *e.CardExternalID)
		if err != nil {
			return fmt.Errorf("check card: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: card %s does not exist", core.ErrConstraintViolation, *e.CardExternalID)
		}
	}
	return nil
}

func entryArgs(e core.Entry) []any {
	var card any
	if e.HasCard() {
		card = e.CardExternalID.String()
	}
	return []any{
		e.ExternalID, e.Description, e.Note, int(e.Kind), e.IsTransfer,
		e.Posting.Day, e.Posting.Month, e.Posting.Year,
		e.Purchase.Day, e.Purchase.Month, e.Purchase.Year,
		e.CategoryID, card, e.RecurrenceCode, e.InstallmentCount, e.InstallmentLabel,
		amountArg(e.Amount), e.Paid, e.Split, e.AccountExternalID,
		e.CreatedAt, e.NotificationRead, e.CurrencyCode,
	}
}
