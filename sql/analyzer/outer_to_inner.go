package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
	"github.com/tidesql/tidesql/sql/types"
)

// outerToInner implements §4.4's "Outer -> inner join conversion": a Filter
// sitting directly above a LEFT/RIGHT/FULL join is inspected for a
// null-rejecting predicate over the side that an outer join would otherwise
// pad with NULLs; if one exists, that side (or both, for FULL) is no longer
// outer-preserved and the join degrades to INNER.
func outerToInner(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		conjuncts := splitConjuncts(f.Predicate)
		switch child := f.Child.(type) {
		case *plan.HashJoin:
			if jt, changed := degradeJoinType(child.Type, conjuncts, child.Left, child.Right); changed {
				return plan.NewFilter(f.Predicate, plan.NewHashJoin(jt, child.Left, child.Right, child.LeftKeys, child.RightKeys)), transform.NewTree, nil
			}
		case *plan.NestedLoopJoin:
			if jt, changed := degradeJoinType(child.Type, conjuncts, child.Left, child.Right); changed {
				return plan.NewFilter(f.Predicate, plan.NewNestedLoopJoin(jt, child.Left, child.Right, child.Condition)), transform.NewTree, nil
			}
		}
		return node, transform.SameTree, nil
	})
}

func degradeJoinType(jt plan.JoinType, conjuncts []sql.Expression, left, right sql.Node) (plan.JoinType, bool) {
	leftWidth := len(left.Schema())
	rightWidth := len(right.Schema())
	rejectsLeft := nullRejects(conjuncts, 0, leftWidth)
	rejectsRight := nullRejects(conjuncts, leftWidth, leftWidth+rightWidth)
	switch jt {
	case plan.JoinLeft:
		if rejectsRight {
			return plan.JoinInner, true
		}
	case plan.JoinRight:
		if rejectsLeft {
			return plan.JoinInner, true
		}
	case plan.JoinFull:
		if rejectsLeft && rejectsRight {
			return plan.JoinInner, true
		}
		if rejectsRight {
			return plan.JoinLeft, true
		}
		if rejectsLeft {
			return plan.JoinRight, true
		}
	}
	return jt, false
}

// nullRejects reports whether some conjunct is certain to drop a row (under
// WHERE's three-valued semantics) whose column in [lo, hi) is NULL. Two
// shapes are recognized: `col IS NOT NULL`, and a comparison (=, !=, <, <=,
// >, >=) with a column of that range as a direct operand. Every other
// conjunct, including `x IS NULL`, is treated as not null-rejecting.
func nullRejects(conjuncts []sql.Expression, lo, hi int) bool {
	for _, c := range conjuncts {
		refs := referencedIndices(c)
		touches := false
		for i := range refs {
			if i >= lo && i < hi {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		if isNull, ok := c.(*expression.IsNull); ok {
			if _, col := isNull.Operand().(*expression.GetField); col && isNull.Negated() {
				return true
			}
			continue
		}
		if bin, ok := c.(*expression.BinaryOp); ok && bin.Op() >= types.OpEq && bin.Op() <= types.OpGte {
			for _, operand := range bin.Children() {
				if gf, ok := operand.(*expression.GetField); ok && gf.Index() >= lo && gf.Index() < hi {
					return true
				}
			}
		}
	}
	return false
}
