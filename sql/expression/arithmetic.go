package expression

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// BinaryOp wraps one of types.BinOp's arithmetic, comparison, and logical
// operators (§4.1's coercion ladder and §3's three-valued AND/OR are both
// implemented once in sql/types/kernels.go; this node just drives them from
// the tree).
type BinaryOp struct {
	op          types.BinOp
	left, right sql.Expression
	resultType  types.DataType
}

var opSymbols = map[types.BinOp]string{
	types.OpAdd: "+", types.OpSub: "-", types.OpMul: "*", types.OpDiv: "/", types.OpMod: "%",
	types.OpEq: "=", types.OpNeq: "!=", types.OpLt: "<", types.OpLte: "<=", types.OpGt: ">", types.OpGte: ">=",
	types.OpAnd: "AND", types.OpOr: "OR",
	types.OpSafeAdd: "SAFE_ADD", types.OpSafeSub: "SAFE_SUBTRACT", types.OpSafeMul: "SAFE_MULTIPLY",
	types.OpSafeDivide: "SAFE_DIVIDE", types.OpIEEEDivide: "IEEE_DIVIDE",
}

func isComparison(op types.BinOp) bool {
	switch op {
	case types.OpEq, types.OpNeq, types.OpLt, types.OpLte, types.OpGt, types.OpGte:
		return true
	default:
		return false
	}
}

func isLogical(op types.BinOp) bool {
	return op == types.OpAnd || op == types.OpOr
}

// NewBinaryOp builds a binary operator node. resultType is the pre-computed
// static result type (bool for comparisons/logical ops, the widened numeric
// type for arithmetic — see types.WidenNumeric).
func NewBinaryOp(op types.BinOp, left, right sql.Expression, resultType types.DataType) *BinaryOp {
	return &BinaryOp{op: op, left: left, right: right, resultType: resultType}
}

func (b *BinaryOp) Op() types.BinOp { return b.op }

func (b *BinaryOp) Type() types.DataType { return b.resultType }
func (b *BinaryOp) Nullable() bool       { return true }
func (b *BinaryOp) Resolved() bool       { return b.left.Resolved() && b.right.Resolved() }
func (b *BinaryOp) Children() []sql.Expression { return []sql.Expression{b.left, b.right} }
func (b *BinaryOp) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("BinaryOp: expected 2 children, got %d", len(children))
	}
	return &BinaryOp{op: b.op, left: children[0], right: children[1], resultType: b.resultType}, nil
}

func (b *BinaryOp) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	l, err := b.left.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	// AND/OR short-circuit on a determining operand even if the other side
	// is NULL (§3 "FALSE AND NULL = FALSE", "TRUE OR NULL = TRUE").
	if b.op == types.OpAnd && !l.IsNull() && !l.AsBool() {
		return types.NewBool(false), nil
	}
	if b.op == types.OpOr && !l.IsNull() && l.AsBool() {
		return types.NewBool(true), nil
	}
	r, err := b.right.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	return evalBinOpScalar(b.op, l, r)
}

func evalBinOpScalar(op types.BinOp, l, r types.Value) (types.Value, error) {
	lc := types.Broadcast(l, 1)
	rc := types.Broadcast(r, 1)
	var out *types.Column
	var err error
	if isLogical(op) {
		if op == types.OpAnd {
			out = types.LogicalAnd(lc, rc)
		} else {
			out = types.LogicalOr(lc, rc)
		}
	} else if isComparison(op) {
		out, err = types.Comparison(op, lc, rc)
	} else {
		out, err = types.BinaryArithmetic(op, lc, rc)
	}
	if err != nil {
		return types.Value{}, err
	}
	return out.Get(0), nil
}

func (b *BinaryOp) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	l, err := sql.EvalColumnar(ctx, b.left, table)
	if err != nil {
		return nil, err
	}
	r, err := sql.EvalColumnar(ctx, b.right, table)
	if err != nil {
		return nil, err
	}
	if isLogical(b.op) {
		if b.op == types.OpAnd {
			return types.LogicalAnd(l, r), nil
		}
		return types.LogicalOr(l, r), nil
	}
	if isComparison(b.op) {
		return types.Comparison(b.op, l, r)
	}
	return types.BinaryArithmetic(b.op, l, r)
}

func (b *BinaryOp) String() string {
	return "(" + b.left.String() + " " + opSymbols[b.op] + " " + b.right.String() + ")"
}

var _ sql.ColumnarExpression = (*BinaryOp)(nil)

// UnaryOpKind enumerates NOT, arithmetic negation, and the IS TRUE/IS FALSE
// predicates (§3 "NOT", "unary minus", "IS TRUE/IS FALSE").
type UnaryOpKind int

const (
	UnaryNot UnaryOpKind = iota
	UnaryNegate
	UnaryIsTrue
	UnaryIsFalse
)

type UnaryOp struct {
	kind UnaryOpKind
	expr sql.Expression
}

func NewUnaryOp(kind UnaryOpKind, expr sql.Expression) *UnaryOp {
	return &UnaryOp{kind: kind, expr: expr}
}

func (u *UnaryOp) Kind() UnaryOpKind { return u.kind }
func (u *UnaryOp) Operand() sql.Expression { return u.expr }

func (u *UnaryOp) Type() types.DataType {
	if u.kind == UnaryNegate {
		return u.expr.Type()
	}
	return types.Bool
}
func (u *UnaryOp) Nullable() bool {
	if u.kind == UnaryIsTrue || u.kind == UnaryIsFalse {
		return false
	}
	return true
}
func (u *UnaryOp) Resolved() bool             { return u.expr.Resolved() }
func (u *UnaryOp) Children() []sql.Expression { return []sql.Expression{u.expr} }
func (u *UnaryOp) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("UnaryOp: expected 1 child, got %d", len(children))
	}
	return &UnaryOp{kind: u.kind, expr: children[0]}, nil
}

func (u *UnaryOp) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := u.expr.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	return evalUnaryScalar(u.kind, v)
}

func evalUnaryScalar(kind UnaryOpKind, v types.Value) (types.Value, error) {
	switch kind {
	case UnaryNot:
		out := types.LogicalNot(types.Broadcast(v, 1))
		return out.Get(0), nil
	case UnaryIsTrue:
		return types.NewBool(!v.IsNull() && v.AsBool()), nil
	case UnaryIsFalse:
		return types.NewBool(!v.IsNull() && !v.AsBool()), nil
	case UnaryNegate:
		if v.IsNull() {
			return types.Null, nil
		}
		zero := zeroOf(v)
		return evalBinOpScalar(types.OpSub, zero, v)
	default:
		return types.Value{}, fmt.Errorf("unknown unary op %d", kind)
	}
}

func zeroOf(v types.Value) types.Value {
	switch v.Kind() {
	case types.KindInt64:
		return types.NewInt64(0)
	case types.KindFloat64:
		return types.NewFloat64(0)
	case types.KindNumeric:
		return types.NewNumeric(decimal.Zero)
	case types.KindBigNumeric:
		return types.NewBigNumeric(decimal.Zero)
	default:
		return types.NewInt64(0)
	}
}

func zeroOfKind(k types.Kind) types.Value {
	switch k {
	case types.KindInt64:
		return types.NewInt64(0)
	case types.KindFloat64:
		return types.NewFloat64(0)
	case types.KindNumeric:
		return types.NewNumeric(decimal.Zero)
	case types.KindBigNumeric:
		return types.NewBigNumeric(decimal.Zero)
	default:
		return types.NewInt64(0)
	}
}

func (u *UnaryOp) EvalColumnar(ctx *sql.Context, table *sql.TableData) (*types.Column, error) {
	col, err := sql.EvalColumnar(ctx, u.expr, table)
	if err != nil {
		return nil, err
	}
	switch u.kind {
	case UnaryNot:
		return types.LogicalNot(col), nil
	case UnaryIsTrue, UnaryIsFalse:
		out := types.NewColumn(types.Bool)
		for i := 0; i < col.Len(); i++ {
			v, err := evalUnaryScalar(u.kind, col.Get(i))
			if err != nil {
				return nil, err
			}
			if err := out.Push(v); err != nil {
				return nil, err
			}
		}
		return out, nil
	case UnaryNegate:
		zeroCol := types.Broadcast(zeroOfKind(col.DataType().Kind), col.Len())
		return types.BinaryArithmetic(types.OpSub, zeroCol, col)
	default:
		return nil, fmt.Errorf("unknown unary op %d", u.kind)
	}
}

var _ sql.ColumnarExpression = (*UnaryOp)(nil)

func (u *UnaryOp) String() string {
	switch u.kind {
	case UnaryNot:
		return "(NOT " + u.expr.String() + ")"
	case UnaryNegate:
		return "(-" + u.expr.String() + ")"
	case UnaryIsTrue:
		return "(" + u.expr.String() + " IS TRUE)"
	case UnaryIsFalse:
		return "(" + u.expr.String() + " IS FALSE)"
	default:
		return u.expr.String()
	}
}
