package planbuilder

import (
	"strconv"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
)

// selectColumn is one column of a SELECT list after star expansion: its
// built expression and its output name.
type selectColumn struct {
	name string
	expr sql.Expression
}

// expandSelectExprs turns `*`, `t.*`, and aliased expressions into a flat
// selectColumn list against s's row schema.
func (b *Builder) expandSelectExprs(s *scope, exprs []ast.SelectExpr) ([]selectColumn, error) {
	var out []selectColumn
	for _, se := range exprs {
		switch e := se.(type) {
		case *ast.StarExpr:
			cols, err := b.expandStar(s, e.TableName)
			if err != nil {
				return nil, err
			}
			out = append(out, cols...)
		case *ast.AliasedExpr:
			expr, err := b.buildExpr(s, e.Expr)
			if err != nil {
				return nil, err
			}
			name := e.As
			if name == "" {
				name = defaultColumnName(e.Expr)
			}
			out = append(out, selectColumn{name: name, expr: expr})
		default:
			return nil, errUnsupported("select expression")
		}
	}
	return out, nil
}

func (b *Builder) expandStar(s *scope, table string) ([]selectColumn, error) {
	if s.schema == nil {
		return nil, errInvalid("SELECT * has no FROM clause to expand against")
	}
	var out []selectColumn
	for i, f := range s.schema {
		if table != "" && !strings.EqualFold(f.Table, table) {
			continue
		}
		out = append(out, selectColumn{name: f.Name, expr: b.newGetField(i, f, s.node)})
	}
	if len(out) == 0 && table != "" {
		return nil, errInvalid("unknown table %q in SELECT %s.*", table, table)
	}
	return out, nil
}

// defaultColumnName derives BigQuery's implicit output name for an
// unaliased select expression: the bare column name for a ColName, the
// field name for a struct access, the lowercased function name for a
// function call, "" for anything else.
func defaultColumnName(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.ColName:
		return n.Name
	case *ast.StructAccessExpr:
		return n.Field
	case *ast.FuncExpr:
		return strings.ToLower(n.Name)
	default:
		return ""
	}
}

// resolveOutputExpr builds a HAVING/QUALIFY-style predicate that may
// reference a SELECT-list output alias directly (a bare, unqualified name
// matching one of selectCols) in addition to any column visible in s.
func (b *Builder) resolveOutputExpr(s *scope, selectCols []selectColumn, e ast.Expr) (sql.Expression, error) {
	if col, ok := e.(*ast.ColName); ok && col.Qualifier == "" {
		if _, _, ok := s.schema.IndexOf("", col.Name); !ok {
			for _, c := range selectCols {
				if strings.EqualFold(c.name, col.Name) {
					return c.expr, nil
				}
			}
		}
	}
	return b.buildExpr(s, e)
}

// buildResultOrderBy builds ORDER BY keys against the pre-projection row,
// resolving an ordinal position (`ORDER BY 2`) first, then a bare name
// against an input column and, failing that, a SELECT-list alias, then a
// normal expression.
func (b *Builder) buildResultOrderBy(s *scope, selectCols []selectColumn, ob ast.OrderBy) ([]sql.SortField, error) {
	out := make([]sql.SortField, len(ob))
	for i, o := range ob {
		var e sql.Expression
		var err error
		if iv, ok := o.Expr.(ast.IntVal); ok {
			pos, perr := strconv.Atoi(string(iv))
			if perr == nil && pos >= 1 && pos <= len(selectCols) {
				e = selectCols[pos-1].expr
			}
		}
		if e == nil {
			e, err = b.resolveOutputExpr(s, selectCols, o.Expr)
			if err != nil {
				return nil, err
			}
		}
		desc := strings.EqualFold(o.Direction, "desc")
		nullsFirst := !desc
		switch strings.ToLower(o.Nulls) {
		case "first":
			nullsFirst = true
		case "last":
			nullsFirst = false
		}
		out[i] = sql.SortField{Expr: e, Desc: desc, NullsFirst: nullsFirst}
	}
	return out, nil
}
