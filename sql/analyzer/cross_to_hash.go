package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
	"github.com/tidesql/tidesql/sql/types"
)

// crossToHash implements §4.4's "Cross -> hash join conversion": a
// CrossJoin with an equi-join conjunct sitting above it in a Filter (column
// from the left side = column from the right side) becomes a HashJoin keyed
// on those columns, leaving any remaining conjuncts as a residual Filter.
// The cross-join is preserved whenever no equi-conjunct exists.
func crossToHash(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		cj, ok := f.Child.(*plan.CrossJoin)
		if !ok {
			return node, transform.SameTree, nil
		}
		leftWidth := len(cj.Left.Schema())
		rightWidth := len(cj.Right.Schema())
		conjuncts := splitConjuncts(f.Predicate)
		var leftKeys, rightKeys, residual []sql.Expression
		for _, c := range conjuncts {
			lk, rk, ok := equiJoinKey(c, leftWidth, leftWidth+rightWidth)
			if !ok {
				residual = append(residual, c)
				continue
			}
			leftKeys = append(leftKeys, lk)
			rightKeys = append(rightKeys, shiftIndices(rk, leftWidth))
		}
		if len(leftKeys) == 0 {
			return node, transform.SameTree, nil
		}
		joined := plan.NewHashJoin(plan.JoinInner, cj.Left, cj.Right, leftKeys, rightKeys)
		if len(residual) == 0 {
			return joined, transform.NewTree, nil
		}
		return plan.NewFilter(joinConjuncts(residual), joined), transform.NewTree, nil
	})
}

// equiJoinKey reports whether c is `a = b` with a referencing only the left
// range and b only the right range (or vice versa), returning the two sides
// ordered (left-side expr, right-side expr).
func equiJoinKey(c sql.Expression, leftHi, rightHi int) (sql.Expression, sql.Expression, bool) {
	b, ok := c.(*expression.BinaryOp)
	if !ok || b.Op() != types.OpEq {
		return nil, nil, false
	}
	children := b.Children()
	left, right := children[0], children[1]
	lRefs, rRefs := referencedIndices(left), referencedIndices(right)
	if onlyReferences(lRefs, 0, leftHi) && onlyReferences(rRefs, leftHi, rightHi) {
		return left, right, true
	}
	if onlyReferences(rRefs, 0, leftHi) && onlyReferences(lRefs, leftHi, rightHi) {
		return right, left, true
	}
	return nil, nil, false
}
