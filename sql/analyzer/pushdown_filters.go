package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// pushdownFilters implements §4.4's "Filter pushdown": a Filter is moved
// below a Project (substituting the projection's expressions for the
// GetFields it exposes), below a Sort (row order is irrelevant to
// selection), and split conjunct-by-conjunct across the two sides of a
// CrossJoin or INNER-flavored join, with indices on the right-side conjuncts
// re-based to the child schema. Conjuncts referencing both sides, and any
// push into an outer join's null-producing side, are left above the join.
func pushdownFilters(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		switch child := f.Child.(type) {
		case *plan.Project:
			pred := substituteProject(f.Predicate, child)
			return plan.NewProject(child.Columns, plan.NewFilter(pred, child.Child)), transform.NewTree, nil
		case *plan.Sort:
			return plan.NewSort(child.Keys, plan.NewFilter(f.Predicate, child.Child)), transform.NewTree, nil
		case *plan.CrossJoin:
			if out, changed := pushIntoInnerJoin(f.Predicate, child.Left, child.Right, func(l, r sql.Node) sql.Node {
				return plan.NewCrossJoin(l, r)
			}); changed {
				return out, transform.NewTree, nil
			}
		case *plan.HashJoin:
			if child.Type == plan.JoinInner {
				if out, changed := pushIntoInnerJoin(f.Predicate, child.Left, child.Right, func(l, r sql.Node) sql.Node {
					return plan.NewHashJoin(child.Type, l, r, child.LeftKeys, child.RightKeys)
				}); changed {
					return out, transform.NewTree, nil
				}
			}
		case *plan.NestedLoopJoin:
			if child.Type == plan.JoinInner {
				if out, changed := pushIntoInnerJoin(f.Predicate, child.Left, child.Right, func(l, r sql.Node) sql.Node {
					return plan.NewNestedLoopJoin(child.Type, l, r, child.Condition)
				}); changed {
					return out, transform.NewTree, nil
				}
			}
		}
		return node, transform.SameTree, nil
	})
}

// substituteProject rewrites pred (expressed against a Project's output
// schema) in terms of the Project's input schema, by replacing each
// GetField(i) with Columns[i].Expr.
func substituteProject(pred sql.Expression, p *plan.Project) sql.Expression {
	out, _, _ := transform.TransformExprsUp(pred, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		gf, ok := asGetField(e)
		if !ok || gf >= len(p.Columns) {
			return e, transform.SameTree, nil
		}
		return p.Columns[gf].Expr, transform.NewTree, nil
	})
	return out
}

func pushIntoInnerJoin(pred sql.Expression, left, right sql.Node, rebuild func(l, r sql.Node) sql.Node) (sql.Node, bool) {
	leftWidth := len(left.Schema())
	conjuncts := splitConjuncts(pred)
	var toLeft, toRight, residual []sql.Expression
	for _, c := range conjuncts {
		refs := referencedIndices(c)
		switch {
		case onlyReferences(refs, 0, leftWidth):
			toLeft = append(toLeft, c)
		case onlyReferences(refs, leftWidth, leftWidth+len(right.Schema())):
			toRight = append(toRight, shiftIndices(c, leftWidth))
		default:
			residual = append(residual, c)
		}
	}
	if len(toLeft) == 0 && len(toRight) == 0 {
		return nil, false
	}
	newLeft, newRight := left, right
	if len(toLeft) > 0 {
		newLeft = plan.NewFilter(joinConjuncts(toLeft), left)
	}
	if len(toRight) > 0 {
		newRight = plan.NewFilter(joinConjuncts(toRight), right)
	}
	joined := rebuild(newLeft, newRight)
	if len(residual) == 0 {
		return joined, true
	}
	return plan.NewFilter(joinConjuncts(residual), joined), true
}

func asGetField(e sql.Expression) (int, bool) {
	gf, ok := e.(interface{ Index() int })
	if !ok {
		return 0, false
	}
	return gf.Index(), true
}
