package sqlstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"coursys/courselib/pkg/catalog"
	"coursys/courselib/pkg/store"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier is returned when a table or column name could not be
// safely interpolated into SQL.
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

// sqliteTimeFormat is the layout both sqlite drivers write time.Time values in.
const sqliteTimeFormat = "2006-01-02 15:04:05.999999999-07:00"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

// normalizeValue converts timestamps to UTC before they are written.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	}
	return v
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// predicate translates a store.Condition into a squirrel WHERE expression
// for the given model.
func (s *Store) predicate(model *catalog.Model, cond store.Condition) (sq.Sqlizer, error) {
	if err := checkIdent(model.Table); err != nil {
		return nil, err
	}
	if err := checkIdent(model.Key()); err != nil {
		return nil, err
	}

	switch c := cond.(type) {
	case nil, store.Everything:
		return sq.Expr("1 = 1"), nil

	case store.Nothing:
		return sq.Expr("1 = 0"), nil

	case store.Before:
		if err := checkIdent(c.Field); err != nil {
			return nil, err
		}
		// NULL < cutoff is NULL, so rows without a value never match.
		if s.isSQLite() {
			// sqlite keeps timestamps as text carrying their own offset;
			// julianday compares instants instead of strings.
			return sq.Expr(fmt.Sprintf("julianday(%s) < julianday(?)", c.Field), formatSQLiteTime(c.Cutoff)), nil
		}
		return sq.Lt{c.Field: c.Cutoff.UTC()}, nil

	case store.Equals:
		if err := checkIdent(c.Field); err != nil {
			return nil, err
		}
		return sq.Eq{c.Field: c.Value}, nil

	case store.Unreferenced:
		if len(c.Refs) == 0 {
			return sq.Expr("1 = 1"), nil
		}
		var self []string
		for _, ref := range c.Refs {
			if err := checkIdent(ref.Table); err != nil {
				return nil, err
			}
			if err := checkIdent(ref.Field); err != nil {
				return nil, err
			}
			if ref.Table == model.Table {
				self = append(self, ref.Field)
			}
		}
		if len(self) > 0 {
			return sq.Expr(reachableClause(model, c.Refs, self)), nil
		}

		and := make(sq.And, 0, len(c.Refs))
		for _, ref := range c.Refs {
			and = append(and, sq.Expr(fmt.Sprintf(
				"NOT EXISTS (SELECT 1 FROM %s r WHERE r.%s = %s.%s)",
				ref.Table, ref.Field, model.Table, model.Key(),
			)))
		}
		return and, nil

	case store.All:
		if len(c) == 0 {
			return sq.Expr("1 = 1"), nil
		}
		and := make(sq.And, 0, len(c))
		for _, sub := range c {
			pred, err := s.predicate(model, sub)
			if err != nil {
				return nil, err
			}
			and = append(and, pred)
		}
		return and, nil

	default:
		return nil, fmt.Errorf("%w: %T", store.ErrUnsupportedCondition, cond)
	}
}

// reachableClause matches records of a self-referencing model that cannot be
// reached from outside it. The recursive query starts from the keys other
// tables point at and follows the model's own relation fields (self) from
// there, so a chain of records referenced only by each other is matched as a
// whole. All identifiers must have been checked.
func reachableClause(model *catalog.Model, refs []catalog.Reference, self []string) string {
	key := model.Key()

	var roots []string
	for _, ref := range refs {
		if ref.Table == model.Table {
			continue
		}
		roots = append(roots, fmt.Sprintf(
			"SELECT r.%s FROM %s r WHERE r.%s IS NOT NULL", ref.Field, ref.Table, ref.Field))
	}
	if len(roots) == 0 {
		roots = append(roots, fmt.Sprintf("SELECT %s FROM %s WHERE 1 = 0", key, model.Table))
	}

	joins := make([]string, len(self))
	for i, field := range self {
		joins[i] = fmt.Sprintf("c.%s = p.%s", key, field)
	}

	return fmt.Sprintf(
		"%s.%s NOT IN (WITH RECURSIVE kept(id) AS (%s UNION "+
			"SELECT c.%s FROM %s c JOIN %s p ON (%s) JOIN kept k ON p.%s = k.id"+
			") SELECT id FROM kept)",
		model.Table, key,
		strings.Join(roots, " UNION "),
		key, model.Table, model.Table, strings.Join(joins, " OR "), key,
	)
}
