package expression

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// Between implements `x BETWEEN lo AND hi` as `x >= lo AND x <= hi`, with
// the usual NULL propagation from either comparison (§3 "BETWEEN").
type Between struct {
	val, lower, upper sql.Expression
}

func NewBetween(val, lower, upper sql.Expression) *Between {
	return &Between{val: val, lower: lower, upper: upper}
}

func (b *Between) Type() types.DataType { return types.Bool }
func (b *Between) Nullable() bool       { return true }
func (b *Between) Resolved() bool {
	return b.val.Resolved() && b.lower.Resolved() && b.upper.Resolved()
}
func (b *Between) Children() []sql.Expression {
	return []sql.Expression{b.val, b.lower, b.upper}
}
func (b *Between) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 3 {
		return nil, fmt.Errorf("Between: expected 3 children, got %d", len(children))
	}
	return &Between{val: children[0], lower: children[1], upper: children[2]}, nil
}

func (b *Between) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := b.val.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	lo, err := b.lower.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	hi, err := b.upper.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	ge, err := evalBinOpScalar(types.OpGte, v, lo)
	if err != nil {
		return types.Value{}, err
	}
	le, err := evalBinOpScalar(types.OpLte, v, hi)
	if err != nil {
		return types.Value{}, err
	}
	out := types.LogicalAnd(types.Broadcast(ge, 1), types.Broadcast(le, 1))
	return out.Get(0), nil
}

func (b *Between) String() string {
	return fmt.Sprintf("(%s BETWEEN %s AND %s)", b.val.String(), b.lower.String(), b.upper.String())
}

// Like implements LIKE/NOT LIKE with `%`/`_` wildcards, optionally
// case-insensitively (§3 "LIKE", and BigQuery's case-insensitive variant).
type Like struct {
	val, pattern  sql.Expression
	negated       bool
	caseInsensitive bool
}

func NewLike(val, pattern sql.Expression, negated, caseInsensitive bool) *Like {
	return &Like{val: val, pattern: pattern, negated: negated, caseInsensitive: caseInsensitive}
}

func (l *Like) Type() types.DataType { return types.Bool }
func (l *Like) Nullable() bool       { return true }
func (l *Like) Resolved() bool       { return l.val.Resolved() && l.pattern.Resolved() }
func (l *Like) Children() []sql.Expression {
	return []sql.Expression{l.val, l.pattern}
}
func (l *Like) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Like: expected 2 children, got %d", len(children))
	}
	return &Like{val: children[0], pattern: children[1], negated: l.negated, caseInsensitive: l.caseInsensitive}, nil
}

func (l *Like) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := l.val.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	p, err := l.pattern.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	if v.IsNull() || p.IsNull() {
		return types.Null, nil
	}
	matched := likeMatch(v.AsString(), p.AsString(), l.caseInsensitive)
	if l.negated {
		matched = !matched
	}
	return types.NewBool(matched), nil
}

func (l *Like) String() string {
	op := "LIKE"
	if l.negated {
		op = "NOT LIKE"
	}
	return fmt.Sprintf("(%s %s %s)", l.val.String(), op, l.pattern.String())
}

// likeMatch translates a SQL LIKE pattern (`%` = any run, `_` = any single
// char, `\` escapes the next char) into an anchored regex-free matcher via
// straightforward backtracking; patterns in practice are short.
func likeMatch(s, pattern string, ci bool) bool {
	if ci {
		s = strings.ToLower(s)
		pattern = strings.ToLower(pattern)
	}
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		// Skip redundant consecutive '%'.
		for len(p) > 0 && p[0] == '%' {
			p = p[1:]
		}
		if len(p) == 0 {
			return true
		}
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], p) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	case '\\':
		if len(p) < 2 || len(s) == 0 || s[0] != p[1] {
			return false
		}
		return likeMatchRunes(s[1:], p[2:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}

// IsNull implements `x IS [NOT] NULL`, a predicate that never itself
// returns NULL (§3 "IS NULL/IS NOT NULL are never NULL").
type IsNull struct {
	expr    sql.Expression
	negated bool
}

func NewIsNull(expr sql.Expression, negated bool) *IsNull { return &IsNull{expr: expr, negated: negated} }

func (n *IsNull) Negated() bool        { return n.negated }
func (n *IsNull) Operand() sql.Expression { return n.expr }

func (n *IsNull) Type() types.DataType       { return types.Bool }
func (n *IsNull) Nullable() bool             { return false }
func (n *IsNull) Resolved() bool             { return n.expr.Resolved() }
func (n *IsNull) Children() []sql.Expression { return []sql.Expression{n.expr} }
func (n *IsNull) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("IsNull: expected 1 child, got %d", len(children))
	}
	return &IsNull{expr: children[0], negated: n.negated}, nil
}
func (n *IsNull) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := n.expr.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	if n.negated {
		return types.NewBool(!v.IsNull()), nil
	}
	return types.NewBool(v.IsNull()), nil
}
func (n *IsNull) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	col, err := sql.EvalColumnar(ctx, n.expr, table)
	if err != nil {
		return nil, err
	}
	mask := col.IsNullMask()
	if !n.negated {
		return mask, nil
	}
	return types.LogicalNot(mask), nil
}
func (n *IsNull) String() string {
	if n.negated {
		return "(" + n.expr.String() + " IS NOT NULL)"
	}
	return "(" + n.expr.String() + " IS NULL)"
}

var _ sql.ColumnarExpression = (*IsNull)(nil)

// IsDistinctFrom implements `a IS [NOT] DISTINCT FROM b`: NULL-safe
// equality that never itself produces NULL (§3's null-safe equality note).
type IsDistinctFrom struct {
	left, right sql.Expression
	negated     bool
}

func NewIsDistinctFrom(left, right sql.Expression, negated bool) *IsDistinctFrom {
	return &IsDistinctFrom{left: left, right: right, negated: negated}
}

func (d *IsDistinctFrom) Type() types.DataType { return types.Bool }
func (d *IsDistinctFrom) Nullable() bool       { return false }
func (d *IsDistinctFrom) Resolved() bool       { return d.left.Resolved() && d.right.Resolved() }
func (d *IsDistinctFrom) Children() []sql.Expression {
	return []sql.Expression{d.left, d.right}
}
func (d *IsDistinctFrom) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("IsDistinctFrom: expected 2 children, got %d", len(children))
	}
	return &IsDistinctFrom{left: children[0], right: children[1], negated: d.negated}, nil
}
func (d *IsDistinctFrom) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	l, err := d.left.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	r, err := d.right.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	same := types.Equal(l, r)
	distinct := !same
	if d.negated {
		return types.NewBool(!distinct), nil
	}
	return types.NewBool(distinct), nil
}
func (d *IsDistinctFrom) String() string {
	op := "IS DISTINCT FROM"
	if d.negated {
		op = "IS NOT DISTINCT FROM"
	}
	return fmt.Sprintf("(%s %s %s)", d.left.String(), op, d.right.String())
}

// InList implements `x [NOT] IN (e1, e2, ...)`. Per §3's three-valued IN
// semantics: any matching element yields TRUE; no match but a NULL element
// or a NULL probe value yields NULL; otherwise FALSE.
type InList struct {
	val     sql.Expression
	list    []sql.Expression
	negated bool
}

func NewInList(val sql.Expression, list []sql.Expression, negated bool) *InList {
	return &InList{val: val, list: list, negated: negated}
}

func (l *InList) Type() types.DataType { return types.Bool }
func (l *InList) Nullable() bool       { return true }
func (l *InList) Resolved() bool {
	if !l.val.Resolved() {
		return false
	}
	for _, e := range l.list {
		if !e.Resolved() {
			return false
		}
	}
	return true
}
func (l *InList) Children() []sql.Expression {
	return append([]sql.Expression{l.val}, l.list...)
}
func (l *InList) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != len(l.list)+1 {
		return nil, fmt.Errorf("InList: expected %d children, got %d", len(l.list)+1, len(children))
	}
	return &InList{val: children[0], list: children[1:], negated: l.negated}, nil
}
func (l *InList) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := l.val.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	result, err := evalInSet(v, func(yield func(types.Value) error) error {
		for _, e := range l.list {
			ev, err := e.Eval(ctx, rec)
			if err != nil {
				return err
			}
			if err := yield(ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.Value{}, err
	}
	if l.negated && !result.IsNull() {
		return types.NewBool(!result.AsBool()), nil
	}
	return result, nil
}

// evalInSet implements the shared IN-semantics core: TRUE on any match,
// else NULL if the probe or any candidate was NULL, else FALSE.
func evalInSet(v types.Value, each func(yield func(types.Value) error) error) (types.Value, error) {
	if v.IsNull() {
		return types.Null, nil
	}
	sawNull := false
	var matchErr error
	found := false
	matchErr = each(func(cand types.Value) error {
		if found {
			return nil
		}
		if cand.IsNull() {
			sawNull = true
			return nil
		}
		if types.Equal(v, cand) {
			found = true
		}
		return nil
	})
	if matchErr != nil {
		return types.Value{}, matchErr
	}
	if found {
		return types.NewBool(true), nil
	}
	if sawNull {
		return types.Null, nil
	}
	return types.NewBool(false), nil
}

func (l *InList) String() string {
	parts := make([]string, len(l.list))
	for i, e := range l.list {
		parts[i] = e.String()
	}
	op := "IN"
	if l.negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("(%s %s (%s))", l.val.String(), op, joinStrings(parts, ", "))
}

// InUnnest implements `x [NOT] IN UNNEST(array_expr)`, BigQuery's array
// membership test (§C supplement: IN over an array value rather than a
// subquery or literal list).
type InUnnest struct {
	val, array sql.Expression
	negated    bool
}

func NewInUnnest(val, array sql.Expression, negated bool) *InUnnest {
	return &InUnnest{val: val, array: array, negated: negated}
}

func (u *InUnnest) Type() types.DataType { return types.Bool }
func (u *InUnnest) Nullable() bool       { return true }
func (u *InUnnest) Resolved() bool       { return u.val.Resolved() && u.array.Resolved() }
func (u *InUnnest) Children() []sql.Expression {
	return []sql.Expression{u.val, u.array}
}
func (u *InUnnest) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("InUnnest: expected 2 children, got %d", len(children))
	}
	return &InUnnest{val: children[0], array: children[1], negated: u.negated}, nil
}
func (u *InUnnest) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := u.val.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	arr, err := u.array.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	if arr.IsNull() {
		return types.Null, nil
	}
	elems := arr.AsArray()
	result, err := evalInSet(v, func(yield func(types.Value) error) error {
		for _, e := range elems {
			if err := yield(e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.Value{}, err
	}
	if u.negated && !result.IsNull() {
		return types.NewBool(!result.AsBool()), nil
	}
	return result, nil
}
func (u *InUnnest) String() string {
	op := "IN"
	if u.negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("(%s %s UNNEST(%s))", u.val.String(), op, u.array.String())
}
