package storage

import (
	"context"
	"database/sql"
	"fmt"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

const categoryColumns = "id, nome, chave_localizacao, subcategoria, tipo, icone, cor_r, cor_g, cor_b, cor_a, pai_id"

var categoryFields = fieldMap{
	"id":       "id",
	"name":     "nome",
	"kind":     "tipo",
	"icon":     "icone",
	"parentId": "pai_id",
}

type Categories struct {
	db     DBTX
	logger *log.Logger
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c      core.Category
		key    sql.NullString
		sub    sql.NullString
		parent sql.NullInt64
	)
	err := s.Scan(&c.ID, &c.RawName, &key, &sub, &c.Kind, &c.IconIndex,
		&c.Color.R, &c.Color.G, &c.Color.B, &c.Color.A, &parent)
	if key.Valid {
		c.LocalizationKey = &key.String
	}
	if sub.Valid {
		c.SubcategoryName = &sub.String
	}
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return c, err
}

func (r *Categories) List(ctx context.Context, q Query) ([]core.Category, error) {
	return list(ctx, r.db, "categoria", categoryColumns, categoryFields, q, scanCategory)
}

// Children lists the subcategories of parentID.
func (r *Categories) Children(ctx context.Context, parentID int64) ([]core.Category, error) {
	return r.List(ctx, Query{Where: []Predicate{Where("parentId", Eq, parentID)}})
}

func (r *Categories) Get(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categoria WHERE id = ?", id))
	if err != nil {
		return core.Category{}, readErr("get category", err)
	}
	return c, nil
}

// Insert stores c and sets c.ID. A parent must exist and be top level.
func (r *Categories) Insert(ctx context.Context, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.checkParent(ctx, *c); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categoria (nome, chave_localizacao, subcategoria, tipo, icone, cor_r, cor_g, cor_b, cor_a, pai_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		categoryArgs(*c)...)
	if err != nil {
		return writeErr("insert category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return writeErr("insert category", err)
	}
	c.ID = id
	r.logger.DebugContext(ctx, "Category inserted", log.NewFields().WithOperation(log.OpCreate).WithEntity("category", id).ToSlice()...)
	return nil
}

func (r *Categories) Update(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := r.checkParent(ctx, c); err != nil {
		return err
	}
	args := append(categoryArgs(c), c.ID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE categoria SET nome = ?, chave_localizacao = ?, subcategoria = ?, tipo = ?, icone = ?,
		cor_r = ?, cor_g = ?, cor_b = ?, cor_a = ?, pai_id = ? WHERE id = ?`,
		args...)
	if err != nil {
		return writeErr("update category", err)
	}
	if err := affectedOne("update category", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Category updated",
		log.NewFields().WithOperation(log.OpUpdate).WithEntity("category", c.ID).ToSlice()...)
	return nil
}

// Delete removes a category. Categories still used by entries or holding
// subcategories are rejected with core.ErrConstraintViolation.
func (r *Categories) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categoria WHERE id = ?", id)
	if err != nil {
		return writeErr("delete category", err)
	}
	if err := affectedOne("delete category", res); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Category deleted", log.NewFields().WithOperation(log.OpDelete).WithEntity("category", id).ToSlice()...)
	return nil
}

// checkParent keeps the hierarchy one level deep.
func (r *Categories) checkParent(ctx context.Context, c core.Category) error {
	if c.ParentID == nil {
		return nil
	}
	parent, err := r.Get(ctx, *c.ParentID)
	if err != nil {
		return fmt.Errorf("%w: parent category %d: %w", core.ErrConstraintViolation, *c.ParentID, err)
	}
	if parent.ParentID != nil {
		return fmt.Errorf("%w: %w", core.ErrConstraintViolation, core.ErrCategoryTooDeep)
	}
	if c.ID == 0 {
		return nil
	}
	hasChildren, err := exists(ctx, r.db, "SELECT 1 FROM categoria WHERE pai_id = ? LIMIT 1", c.ID)
	if err != nil {
		return fmt.Errorf("check subcategories: %w", err)
	}
	if hasChildren {
		return fmt.Errorf("%w: %w", core.ErrConstraintViolation, core.ErrCategoryTooDeep)
	}
	return nil
}

func categoryArgs(c core.Category) []any {
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	return []any{
		c.RawName, nullString(c.LocalizationKey), nullString(c.SubcategoryName), int(c.Kind), c.IconIndex,
		c.Color.R, c.Color.G, c.Color.B, c.Color.A, parent,
	}
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
