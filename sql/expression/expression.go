// Package expression implements the concrete variants of the expression IR
// described in §3, plus the two evaluation modes of §4.2: row-at-a-time
// (every node implements sql.Expression.Eval) and vectorized (nodes that
// also implement sql.ColumnarExpression).
package expression

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

func noChildren() []sql.Expression { return nil }

func sameIfNoChildren(e sql.Expression, children ...sql.Expression) error {
	if len(children) != 0 {
		return fmt.Errorf("%T: expected 0 children, got %d", e, len(children))
	}
	return nil
}

// Literal is a constant value carried straight into the plan.
type Literal struct {
	value types.Value
	typ   types.DataType
}

func NewLiteral(v types.Value, t types.DataType) *Literal { return &Literal{value: v, typ: t} }

func (l *Literal) Type() types.DataType  { return l.typ }
func (l *Literal) Nullable() bool        { return l.value.IsNull() }
func (l *Literal) Resolved() bool        { return true }
func (l *Literal) Children() []sql.Expression { return noChildren() }
func (l *Literal) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(l, children...); err != nil {
		return nil, err
	}
	return l, nil
}
func (l *Literal) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) { return l.value, nil }
func (l *Literal) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	return types.Broadcast(l.value, table.RowCount()), nil
}
func (l *Literal) String() string { return l.value.String() }

var _ sql.ColumnarExpression = (*Literal)(nil)

// GetField is a resolved column reference: Column{table?, name, index?} in
// §3's vocabulary. Index, when >= 0, is a pre-resolved positional hint into
// the immediate input schema; planning stamps it in once name resolution
// succeeds (§3 "a pre-resolved output-position reference").
type GetField struct {
	index    int
	name     string
	table    string
	typ      types.DataType
	nullable bool
}

func NewGetField(index int, typ types.DataType, name string, nullable bool) *GetField {
	return &GetField{index: index, name: name, typ: typ, nullable: nullable}
}

func NewGetFieldWithTable(index int, typ types.DataType, table, name string, nullable bool) *GetField {
	return &GetField{index: index, name: name, table: table, typ: typ, nullable: nullable}
}

func (f *GetField) Index() int     { return f.index }
func (f *GetField) Name() string   { return f.name }
func (f *GetField) Table() string  { return f.table }

func (f *GetField) Type() types.DataType       { return f.typ }
func (f *GetField) Nullable() bool             { return f.nullable }
func (f *GetField) Resolved() bool             { return f.index >= 0 }
func (f *GetField) Children() []sql.Expression { return noChildren() }
func (f *GetField) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(f, children...); err != nil {
		return nil, err
	}
	return f, nil
}

// Eval resolves by index when present; otherwise by case-insensitive name
// lookup against the record's schema, falling back to session variables,
// and finally ColumnNotFound (§4.2 "Column resolution").
func (f *GetField) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	if f.index >= 0 && f.index < rec.Len() {
		return rec.Get(f.index), nil
	}
	idx, _, ok := rec.Schema().IndexOf(f.table, f.name)
	if ok {
		return rec.Get(idx), nil
	}
	if v, ok := ctx.GetVariable(f.name); ok {
		return v, nil
	}
	return types.Value{}, errColumnNotFound(f.name)
}

func (f *GetField) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	if f.index >= 0 && f.index < table.NumColumns() {
		return table.Column(f.index), nil
	}
	idx, _, ok := table.Schema().IndexOf(f.table, f.name)
	if ok {
		return table.Column(idx), nil
	}
	return nil, errColumnNotFound(f.name)
}

var _ sql.ColumnarExpression = (*GetField)(nil)

func (f *GetField) String() string {
	if f.table != "" {
		return f.table + "." + f.name
	}
	return f.name
}

// Alias gives an expression a result name, used for SELECT list aliases and
// GROUP BY key/aggregate naming.
type Alias struct {
	name string
	expr sql.Expression
}

func NewAlias(name string, expr sql.Expression) *Alias { return &Alias{name: name, expr: expr} }

func (a *Alias) Name() string                { return a.name }
func (a *Alias) Unaliased() sql.Expression   { return a.expr }
func (a *Alias) Type() types.DataType        { return a.expr.Type() }
func (a *Alias) Nullable() bool              { return a.expr.Nullable() }
func (a *Alias) Resolved() bool              { return a.expr.Resolved() }
func (a *Alias) Children() []sql.Expression  { return []sql.Expression{a.expr} }
func (a *Alias) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Alias: expected 1 child, got %d", len(children))
	}
	return &Alias{name: a.name, expr: children[0]}, nil
}
func (a *Alias) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return a.expr.Eval(ctx, rec)
}
func (a *Alias) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	return sql.EvalColumnar(ctx, a.expr, table)
}
func (a *Alias) String() string { return a.expr.String() + " AS " + a.name }

var _ sql.ColumnarExpression = (*Alias)(nil)

// Wildcard is `*` or `t.*`, rewritten away by the planner before the
// evaluator ever sees it; it exists transiently in the parsed projection
// list (§4.3 "Rewrite * and t.* into concrete projections").
type Wildcard struct{ table string }

func NewStar() *Wildcard                 { return &Wildcard{} }
func NewQualifiedStar(table string) *Wildcard { return &Wildcard{table: table} }
func (w *Wildcard) Table() string        { return w.table }
func (w *Wildcard) Type() types.DataType { return types.DataType{} }
func (w *Wildcard) Nullable() bool       { return true }
func (w *Wildcard) Resolved() bool       { return false }
func (w *Wildcard) Children() []sql.Expression { return noChildren() }
func (w *Wildcard) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(w, children...); err != nil {
		return nil, err
	}
	return w, nil
}
func (w *Wildcard) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return types.Value{}, errUnresolvedWildcard
}
func (w *Wildcard) String() string {
	if w.table != "" {
		return w.table + ".*"
	}
	return "*"
}

// Default stands for DEFAULT in an INSERT/UPDATE value list.
type Default struct{ typ types.DataType }

func NewDefault(t types.DataType) *Default { return &Default{typ: t} }
func (d *Default) Type() types.DataType    { return d.typ }
func (d *Default) Nullable() bool          { return true }
func (d *Default) Resolved() bool          { return true }
func (d *Default) Children() []sql.Expression { return noChildren() }
func (d *Default) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(d, children...); err != nil {
		return nil, err
	}
	return d, nil
}
func (d *Default) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) { return types.Null, nil }
func (d *Default) String() string                                            { return "DEFAULT" }

// Parameter is a positional or named query parameter (`?` / `@p`).
type Parameter struct {
	name string
	typ  types.DataType
}

func NewParameter(name string, t types.DataType) *Parameter { return &Parameter{name: name, typ: t} }
func (p *Parameter) Type() types.DataType                   { return p.typ }
func (p *Parameter) Nullable() bool                         { return true }
func (p *Parameter) Resolved() bool                         { return true }
func (p *Parameter) Children() []sql.Expression             { return noChildren() }
func (p *Parameter) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(p, children...); err != nil {
		return nil, err
	}
	return p, nil
}
func (p *Parameter) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	if v, ok := ctx.GetVariable("@" + p.name); ok {
		return v, nil
	}
	return types.Null, nil
}
func (p *Parameter) String() string { return "@" + p.name }

// Variable is a session variable reference (`@@var`).
type Variable struct {
	name string
	typ  types.DataType
}

func NewVariable(name string, t types.DataType) *Variable { return &Variable{name: name, typ: t} }
func (v *Variable) Type() types.DataType                  { return v.typ }
func (v *Variable) Nullable() bool                        { return true }
func (v *Variable) Resolved() bool                        { return true }
func (v *Variable) Children() []sql.Expression            { return noChildren() }
func (v *Variable) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(v, children...); err != nil {
		return nil, err
	}
	return v, nil
}
func (v *Variable) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	if val, ok := ctx.GetVariable(v.name); ok {
		return val, nil
	}
	return types.Null, nil
}
func (v *Variable) String() string { return "@@" + v.name }

// Unresolved is a placeholder for any name the planner hasn't bound yet;
// Resolved() is always false so the analyzer's resolution passes keep
// iterating until none remain.
type Unresolved struct {
	name  string
	table string
}

func NewUnresolvedColumn(table, name string) *Unresolved { return &Unresolved{table: table, name: name} }
func (u *Unresolved) Name() string                       { return u.name }
func (u *Unresolved) Table() string                      { return u.table }
func (u *Unresolved) Type() types.DataType               { return types.DataType{} }
func (u *Unresolved) Nullable() bool                     { return true }
func (u *Unresolved) Resolved() bool                     { return false }
func (u *Unresolved) Children() []sql.Expression         { return noChildren() }
func (u *Unresolved) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(u, children...); err != nil {
		return nil, err
	}
	return u, nil
}
func (u *Unresolved) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return types.Value{}, errColumnNotFound(u.name)
}
func (u *Unresolved) String() string {
	if u.table != "" {
		return u.table + "." + u.name
	}
	return u.name
}

// OuterColumn is a reference into the enclosing query's current row, used
// inside a correlated subquery's plan where a plain GetField would instead
// resolve against the subquery's own (unrelated) schema. The
// subquery-evaluating operator binds ctx.Outer to each outer row in turn
// before invoking ExecPlan on the subplan (§4.4 "Scalar subquery
// decorrelation", nested-loop fallback for non-equi correlations).
type OuterColumn struct {
	index    int
	name     string
	table    string
	typ      types.DataType
	nullable bool
}

func NewOuterColumn(index int, typ types.DataType, table, name string, nullable bool) *OuterColumn {
	return &OuterColumn{index: index, name: name, table: table, typ: typ, nullable: nullable}
}

func (o *OuterColumn) Index() int     { return o.index }
func (o *OuterColumn) Name() string   { return o.name }
func (o *OuterColumn) Table() string  { return o.table }

func (o *OuterColumn) Type() types.DataType       { return o.typ }
func (o *OuterColumn) Nullable() bool             { return o.nullable }
func (o *OuterColumn) Resolved() bool             { return o.index >= 0 }
func (o *OuterColumn) Children() []sql.Expression { return noChildren() }
func (o *OuterColumn) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(o, children...); err != nil {
		return nil, err
	}
	return o, nil
}
func (o *OuterColumn) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	if ctx.Outer == nil {
		return types.Value{}, errColumnNotFound(o.name)
	}
	if o.index >= 0 && o.index < ctx.Outer.Len() {
		return ctx.Outer.Get(o.index), nil
	}
	idx, _, ok := ctx.Outer.Schema().IndexOf(o.table, o.name)
	if !ok {
		return types.Value{}, errColumnNotFound(o.name)
	}
	return ctx.Outer.Get(idx), nil
}
func (o *OuterColumn) String() string {
	if o.table != "" {
		return "outer." + o.table + "." + o.name
	}
	return "outer." + o.name
}

func joinStrings(parts []string, sep string) string { return strings.Join(parts, sep) }
