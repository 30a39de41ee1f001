package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// splitConjuncts flattens a chain of AND-ed BinaryOp nodes into its leaf
// conjuncts (§4.4 "Pre-flattens AND chains to a conjunct set for the next
// passes").
func splitConjuncts(e sql.Expression) []sql.Expression {
	if b, ok := e.(*expression.BinaryOp); ok && b.Op() == types.OpAnd {
		left, right := binaryOperands(b)
		return append(splitConjuncts(left), splitConjuncts(right)...)
	}
	return []sql.Expression{e}
}

// binaryOperands exposes a BinaryOp's children in left/right order.
func binaryOperands(b *expression.BinaryOp) (sql.Expression, sql.Expression) {
	c := b.Children()
	return c[0], c[1]
}

// joinConjuncts rebuilds a single AND-expression from a conjunct set,
// returning nil for an empty set and the lone conjunct unwrapped for a
// singleton.
func joinConjuncts(conjuncts []sql.Expression) sql.Expression {
	if len(conjuncts) == 0 {
		return nil
	}
	out := conjuncts[0]
	for _, c := range conjuncts[1:] {
		out = expression.NewBinaryOp(types.OpAnd, out, c, types.Bool)
	}
	return out
}

func isLiteralBool(e sql.Expression, want bool) bool {
	lit, ok := e.(*expression.Literal)
	if !ok {
		return false
	}
	v, err := lit.Eval(nil, sql.Record{})
	if err != nil || v.IsNull() || v.Kind() != types.KindBool {
		return false
	}
	return v.AsBool() == want
}

func newFalseLiteral() sql.Expression { return expression.NewLiteral(types.NewBool(false), types.Bool) }
func newTrueLiteral() sql.Expression  { return expression.NewLiteral(types.NewBool(true), types.Bool) }

// exprEqual is a cheap structural-equality check for expressions, used by
// predicate simplification (x AND x, x OR x, x AND NOT x), predicate
// inference and short-circuit reordering; it compares String() renderings,
// matching the way
// sql.Equal uses Node.String() as a structural-equality proxy.
func exprEqual(a, b sql.Expression) bool {
	return a.String() == b.String()
}

// referencedIndices collects every GetField index an expression tree (or a
// node's own expression set) touches, used by filter/projection pushdown to
// decide which side of a join/schema boundary a predicate or column belongs
// to.
func referencedIndices(e sql.Expression) map[int]bool {
	out := map[int]bool{}
	var walk func(sql.Expression)
	walk = func(x sql.Expression) {
		if gf, ok := x.(*expression.GetField); ok {
			out[gf.Index()] = true
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(e)
	return out
}

func maxIndex(set map[int]bool) int {
	m := -1
	for i := range set {
		if i > m {
			m = i
		}
	}
	return m
}

// onlyReferences reports whether every index in refs falls in [lo, hi).
func onlyReferences(refs map[int]bool, lo, hi int) bool {
	for i := range refs {
		if i < lo || i >= hi {
			return false
		}
	}
	return true
}

// shiftIndices rewrites GetField indices by -offset, used when a pushed-down
// predicate's column positions must be re-based onto a narrower child schema
// (§4.4 "Indices on the pushed-down conjunct are re-based to the child
// schema").
func shiftIndices(e sql.Expression, offset int) sql.Expression {
	if gf, ok := e.(*expression.GetField); ok {
		return expression.NewGetFieldWithTable(gf.Index()-offset, gf.Type(), gf.Table(), gf.Name(), gf.Nullable())
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		newChildren[i] = shiftIndices(c, offset)
	}
	out, err := e.WithChildren(newChildren...)
	if err != nil {
		return e
	}
	return out
}

func isFilter(n sql.Node) (*plan.Filter, bool) {
	f, ok := n.(*plan.Filter)
	return f, ok
}
