package expression

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// Cast implements CAST(expr AS type) and, when Safe is set, SAFE_CAST
// (failure becomes NULL instead of an error; §4.1 "SAFE_CAST agrees with
// CAST on every input it accepts, and turns failure into NULL").
type Cast struct {
	expr sql.Expression
	to   types.DataType
	safe bool
}

func NewCast(expr sql.Expression, to types.DataType, safe bool) *Cast {
	return &Cast{expr: expr, to: to, safe: safe}
}

func (c *Cast) Type() types.DataType       { return c.to }
func (c *Cast) Nullable() bool             { return true }
func (c *Cast) Resolved() bool             { return c.expr.Resolved() }
func (c *Cast) Children() []sql.Expression { return []sql.Expression{c.expr} }
func (c *Cast) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Cast: expected 1 child, got %d", len(children))
	}
	return &Cast{expr: children[0], to: c.to, safe: c.safe}, nil
}
func (c *Cast) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := c.expr.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	return types.CastValue(v, c.to, c.safe)
}
func (c *Cast) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	col, err := sql.EvalColumnar(ctx, c.expr, table)
	if err != nil {
		return nil, err
	}
	return types.CastColumn(col, c.to, c.safe)
}
func (c *Cast) String() string {
	if c.safe {
		return "SAFE_CAST(" + c.expr.String() + " AS " + c.to.String() + ")"
	}
	return "CAST(" + c.expr.String() + " AS " + c.to.String() + ")"
}

var _ sql.ColumnarExpression = (*Cast)(nil)

// TypedString is a typed string literal (DATE '2024-01-01', TIMESTAMP
// '...', JSON '...') whose Eval casts the raw text on every call. The
// planbuilder does not produce this node: it builds a typed string literal
// as a Cast of a STRING Literal. Resolved always reports false.
type TypedString struct {
	raw string
	typ types.DataType
}

func NewTypedString(raw string, typ types.DataType) *TypedString {
	return &TypedString{raw: raw, typ: typ}
}

func (t *TypedString) Raw() string         { return t.raw }
func (t *TypedString) Type() types.DataType { return t.typ }
func (t *TypedString) Nullable() bool       { return false }
func (t *TypedString) Resolved() bool       { return false }
func (t *TypedString) Children() []sql.Expression { return nil }
func (t *TypedString) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(t, children...); err != nil {
		return nil, err
	}
	return t, nil
}
func (t *TypedString) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return types.CastValue(types.NewString(t.raw), t.typ, false)
}
func (t *TypedString) String() string { return t.typ.String() + " '" + t.raw + "'" }

// ResolveTypedString turns a TypedString into its equivalent Literal by
// casting its raw text once.
func ResolveTypedString(t *TypedString) (*Literal, error) {
	v, err := types.CastValue(types.NewString(t.raw), t.typ, false)
	if err != nil {
		return nil, err
	}
	return NewLiteral(v, t.typ), nil
}
