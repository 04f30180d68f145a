package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

// amountArg binds d as text at the fixed amount scale, so 89.90 reads back as
// 89.90 rather than 89.9.
func amountArg(d decimal.Decimal) string {
	return d.StringFixed(core.AmountScale)
}

// Repositories bundles the entity repositories over one DBTX. Bound to a
// *sql.DB every call runs on its own; bound to a transaction (see InTx) all
// calls share it.
type Repositories struct {
	db     DBTX
	logger *log.Logger

	Accounts   *Accounts
	Cards      *Cards
	Categories *Categories
	Entries    *Entries
}

func NewRepositories(db DBTX, logger *log.Logger) *Repositories {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	accounts := &Accounts{db: db, logger: logger}
	cards := &Cards{db: db, logger: logger}
	categories := &Categories{db: db, logger: logger}
	return &Repositories{
		db:         db,
		logger:     logger,
		Accounts:   accounts,
		Cards:      cards,
		Categories: categories,
		Entries: &Entries{
			db:         db,
			logger:     logger,
			accounts:   accounts,
			cards:      cards,
			categories: categories,
		},
	}
}

// InTx runs fn with repositories bound to a single transaction. Nested calls
// reuse the outer transaction.
func (r *Repositories) InTx(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return fn(ctx, r)
	}
	if err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, NewRepositories(tx, r.logger))
	}); err != nil {
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// list runs SELECT columns FROM table with q rendered through fields.
func list[T any](ctx context.Context, db DBTX, table, columns string, fields fieldMap, q Query,
	scan func(scanner) (T, error),
) ([]T, error) {
	clause, args, err := fields.build(q)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+columns+" FROM "+table+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return out, nil
}
