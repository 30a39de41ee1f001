package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/transform"
	"github.com/tidesql/tidesql/sql/types"
)

// simplifyPredicates implements §4.4's "Predicate simplification": algebraic
// idempotence and double-negation rewrites applied to every expression in
// the tree (NOT NOT x -> x, x AND x -> x, x OR x -> x, x AND NOT x -> FALSE,
// x OR NOT x -> TRUE), run once the AND-chains are already flattened by the
// earlier passes.
func simplifyPredicates(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformExpressionsUp(n, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		switch t := e.(type) {
		case *expression.UnaryOp:
			if t.Kind() != expression.UnaryNot {
				break
			}
			if inner, ok := t.Operand().(*expression.UnaryOp); ok && inner.Kind() == expression.UnaryNot {
				return inner.Operand(), transform.NewTree, nil
			}
		case *expression.BinaryOp:
			if t.Op() != types.OpAnd && t.Op() != types.OpOr {
				break
			}
			children := t.Children()
			left, right := children[0], children[1]
			if exprEqual(left, right) {
				return left, transform.NewTree, nil
			}
			if isNegationOf(left, right) || isNegationOf(right, left) {
				if t.Op() == types.OpAnd {
					return newFalseLiteral(), transform.NewTree, nil
				}
				return newTrueLiteral(), transform.NewTree, nil
			}
		}
		return e, transform.SameTree, nil
	})
}

// isNegationOf reports whether a is syntactically NOT b.
func isNegationOf(a, b sql.Expression) bool {
	u, ok := a.(*expression.UnaryOp)
	if !ok || u.Kind() != expression.UnaryNot {
		return false
	}
	return exprEqual(u.Operand(), b)
}
