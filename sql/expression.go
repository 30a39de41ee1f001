package sql

import "github.com/tidesql/tidesql/sql/types"

// Expression is the common interface of every node in the expression IR
// (§3 "Expression"). Concrete variants live in package expression; this
// interface lives here (not there) so that Node, Expression, and Context can
// all reference each other without an import cycle between sql and
// sql/expression.
type Expression interface {
	// Type is the expression's statically inferred result type.
	Type() types.DataType
	// Nullable reports whether evaluation can produce NULL.
	Nullable() bool
	// Resolved is false while the expression still contains unresolved
	// column/function references (mirrors Node.Resolved).
	Resolved() bool
	// Children returns immediate child expressions for the visitor walk.
	Children() []Expression
	// WithChildren returns a copy of this expression with its children
	// replaced; len(children) must equal len(Children()).
	WithChildren(children ...Expression) (Expression, error)
	// Eval evaluates row-at-a-time against rec (§4.2).
	Eval(ctx *Context, rec Record) (types.Value, error)
	// String renders the expression for plan printing/debugging.
	String() string
}

// ColumnarExpression is implemented by expressions that also support the
// vectorized path (§4.2). Not every Expression does; CanEvaluateColumnar
// reports which.
type ColumnarExpression interface {
	Expression
	EvalColumnar(ctx *Context, table *TableData) (*types.Column, error)
}

// CanEvaluateColumnar reports whether expr (and every descendant) supports
// the vectorized path. The columnar evaluator falls back to row-at-a-time
// otherwise (§4.2 "can_evaluate(expr)").
func CanEvaluateColumnar(expr Expression) bool {
	if _, ok := expr.(ColumnarExpression); !ok {
		return false
	}
	for _, c := range expr.Children() {
		if !CanEvaluateColumnar(c) {
			return false
		}
	}
	return true
}

// EvalColumnar evaluates expr vectorized if possible, else falls back to
// evaluating it once per row (§4.2).
func EvalColumnar(ctx *Context, expr Expression, table *TableData) (*types.Column, error) {
	if ce, ok := expr.(ColumnarExpression); ok && CanEvaluateColumnar(expr) {
		return ce.EvalColumnar(ctx, table)
	}
	out := types.NewColumn(expr.Type())
	for i := 0; i < table.RowCount(); i++ {
		v, err := expr.Eval(ctx, table.Record(i))
		if err != nil {
			return nil, err
		}
		if err := out.Push(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
