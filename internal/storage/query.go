package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lancamentos/internal/core"
)

// ErrInvalidQuery rejects predicates or orderings naming unknown fields.
var ErrInvalidQuery = errors.New("invalid query")

type Op string

const (
	Eq    Op = "="
	NotEq Op = "<>"
	Lt    Op = "<"
	Lte   Op = "<="
	Gt    Op = ">"
	Gte   Op = ">="
	Like  Op = "LIKE"
	In    Op = "IN"
	// IsNull and NotNull ignore Value.
	IsNull  Op = "IS NULL"
	NotNull Op = "IS NOT NULL"
)

// Predicate compares a domain field with a value. Field names are the
// repository's public field names (e.g. "paid", "postingMonth"), never columns.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Desc  bool
}

// Query is a conjunction of predicates plus an ordering. The zero Query lists
// everything in id order.
type Query struct {
	Where   []Predicate
	OrderBy []Order
}

func Where(field string, op Op, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

// And returns a copy of q with more predicates.
func (q Query) And(p ...Predicate) Query {
	out := Query{OrderBy: q.OrderBy}
	out.Where = append(append([]Predicate{}, q.Where...), p...)
	return out
}

// Sorted returns a copy of q ordered by o.
func (q Query) Sorted(o ...Order) Query {
	return Query{Where: q.Where, OrderBy: append([]Order{}, o...)}
}

// fieldMap maps public field names to column names of one table.
type fieldMap map[string]string

// build renders the WHERE and ORDER BY clauses. Values are always bound.
func (fm fieldMap) build(q Query) (string, []any, error) {
	var (
		sb    strings.Builder
		args  []any
		conds []string
	)
	for _, p := range q.Where {
		col, ok := fm[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, p.Field)
		}
		switch p.Op {
		case Eq, NotEq, Lt, Lte, Gt, Gte, Like:
			conds = append(conds, fmt.Sprintf("%s %s ?", col, p.Op))
			args = append(args, p.Value)
		case In:
			values, err := toSlice(p.Value)
			if err != nil {
				return "", nil, err
			}
			if len(values) == 0 {
				conds = append(conds, "0")
				continue
			}
			conds = append(conds, fmt.Sprintf("%s IN (%s)", col, placeholders(len(values))))
			args = append(args, values...)
		case IsNull, NotNull:
			conds = append(conds, fmt.Sprintf("%s %s", col, p.Op))
		default:
			return "", nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, p.Op)
		}
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	orders := make([]string, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		col, ok := fm[o.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown order field %q", ErrInvalidQuery, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orders = append(orders, col+" "+dir)
	}
	orders = append(orders, "id ASC")
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(orders, ", "))
	return sb.String(), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toSlice(v any) ([]any, error) {
	switch vs := v.(type) {
	case []any:
		return vs, nil
	case []int:
		out := make([]any, len(vs))
		for i, x := range vs {
			out[i] = x
		}
		return out, nil
	case []int64:
		out := make([]any, len(vs))
		for i, x := range vs {
			out[i] = x
		}
		return out, nil
	case []string:
		out := make([]any, len(vs))
		for i, x := range vs {
			out[i] = x
		}
		return out, nil
	case []uuid.UUID:
		out := make([]any, len(vs))
		for i, x := range vs {
			out[i] = x.String()
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: IN expects a slice, got %T", ErrInvalidQuery, v)
}

// EntryFilterQuery translates the list filters offered to users.
func EntryFilterQuery(f core.EntryFilter, k core.KindFilter) Query {
	var q Query
	switch f {
	case core.EntryFilterInstallment:
		q = q.And(Where("recurrence", Eq, int(core.RecurrenceInstallment)))
	case core.EntryFilterRecurring:
		q = q.And(Where("recurrence", In, []int{
			int(core.RecurrenceMonthly), int(core.RecurrenceBiweekly), int(core.RecurrenceWeekly),
		}))
	case core.EntryFilterPaid:
		q = q.And(Where("paid", Eq, true))
	case core.EntryFilterUnpaid:
		q = q.And(Where("paid", Eq, false))
	}
	if kind, ok := k.Kind(); ok {
		q = q.And(Where("kind", Eq, int(kind)))
	}
	return q
}

// CardFilterQuery selects active or archived cards.
func CardFilterQuery(f core.CardFilter) Query {
	return Query{Where: []Predicate{Where("archived", Eq, f == core.CardFilterArchived)}}
}

// CategoryKindQuery selects categories of one kind, or all.
func CategoryKindQuery(k core.KindFilter) Query {
	if kind, ok := k.Kind(); ok {
		return Query{Where: []Predicate{Where("kind", Eq, int(kind))}}
	}
	return Query{}
}

// MonthQuery selects entries posted in year/month.
func MonthQuery(year, month int) Query {
	return Query{Where: []Predicate{
		Where("postingYear", Eq, year),
		Where("postingMonth", Eq, month),
	}}
}
