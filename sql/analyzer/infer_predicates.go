package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
	"github.com/tidesql/tidesql/sql/types"
)

// inferPredicates implements §4.4's "Predicate inference": given an
// equi-join key pair (l, r) and an existing conjunct `l = <literal>`, the
// transitively implied `r = <literal>` is added to the filter above the
// join so a later pushdown pass can drive it down the join's other side.
func inferPredicates(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		hj, ok := f.Child.(*plan.HashJoin)
		if !ok || hj.Type != plan.JoinInner {
			return node, transform.SameTree, nil
		}
		conjuncts := splitConjuncts(f.Predicate)
		var inferred []sql.Expression
		for i, lk := range hj.LeftKeys {
			rk := hj.RightKeys[i]
			if lit, ok := literalEqualityFor(conjuncts, lk); ok && !hasLiteralEqualityFor(conjuncts, rk) {
				inferred = append(inferred, expression.NewBinaryOp(types.OpEq, rk, lit, types.Bool))
			}
			if lit, ok := literalEqualityFor(conjuncts, rk); ok && !hasLiteralEqualityFor(conjuncts, lk) {
				inferred = append(inferred, expression.NewBinaryOp(types.OpEq, lk, lit, types.Bool))
			}
		}
		if len(inferred) == 0 {
			return node, transform.SameTree, nil
		}
		return plan.NewFilter(joinConjuncts(append(append([]sql.Expression{}, conjuncts...), inferred...)), f.Child), transform.NewTree, nil
	})
}

func literalEqualityFor(conjuncts []sql.Expression, key sql.Expression) (sql.Expression, bool) {
	for _, c := range conjuncts {
		b, ok := c.(*expression.BinaryOp)
		if !ok || b.Op() != types.OpEq {
			continue
		}
		children := b.Children()
		left, right := children[0], children[1]
		if exprEqual(left, key) {
			if _, ok := right.(*expression.Literal); ok {
				return right, true
			}
		}
		if exprEqual(right, key) {
			if _, ok := left.(*expression.Literal); ok {
				return left, true
			}
		}
	}
	return nil, false
}

func hasLiteralEqualityFor(conjuncts []sql.Expression, key sql.Expression) bool {
	_, ok := literalEqualityFor(conjuncts, key)
	return ok
}
