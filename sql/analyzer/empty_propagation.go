package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// propagateEmpty implements §4.4's "Empty propagation": plan.Empty flowing
// into a unary or join node collapses the node to Empty with its own output
// schema wherever the operator cannot produce rows from no input, and drops
// empty branches from Union.
func propagateEmpty(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		switch t := node.(type) {
		case *plan.Filter:
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.Project:
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.Sort:
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.TopN:
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.Limit:
			if t.N == 0 {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.Distinct:
			if isEmpty(t.Child) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.HashAggregate:
			if isEmpty(t.Child) && len(t.GroupKeys) > 0 {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.CrossJoin:
			if isEmpty(t.Left) || isEmpty(t.Right) {
				return plan.NewEmpty(t.Schema()), transform.NewTree, nil
			}
		case *plan.HashJoin:
			if out, changed := joinEmptyResult(t.Type, t.Left, t.Right, t.Schema()); changed {
				return out, transform.NewTree, nil
			}
		case *plan.NestedLoopJoin:
			if out, changed := joinEmptyResult(t.Type, t.Left, t.Right, t.Schema()); changed {
				return out, transform.NewTree, nil
			}
		case *plan.Union:
			if out, changed := dropEmptyBranches(t.Branches, t.All, newUnion); changed {
				return out, transform.NewTree, nil
			}
		}
		return node, transform.SameTree, nil
	})
}

func isEmpty(n sql.Node) bool {
	_, ok := n.(*plan.Empty)
	return ok
}

// joinEmptyResult collapses a join to Empty when both sides are known
// empty, or when an INNER/CROSS-flavored join has either side empty; LEFT
// with an empty right side (or RIGHT with an empty left side) still
// produces the surviving side's rows padded with NULLs, so those cases are
// left to the executor rather than folded here.
func joinEmptyResult(jt plan.JoinType, left, right sql.Node, schema sql.Schema) (sql.Node, bool) {
	le, re := isEmpty(left), isEmpty(right)
	switch jt {
	case plan.JoinInner:
		if le || re {
			return plan.NewEmpty(schema), true
		}
	case plan.JoinLeft:
		if le {
			return plan.NewEmpty(schema), true
		}
	case plan.JoinRight:
		if re {
			return plan.NewEmpty(schema), true
		}
	case plan.JoinFull:
		if le && re {
			return plan.NewEmpty(schema), true
		}
	}
	return nil, false
}

func dropEmptyBranches(branches []sql.Node, all bool, rebuild func(all bool, branches ...sql.Node) sql.Node) (sql.Node, bool) {
	kept := make([]sql.Node, 0, len(branches))
	for _, b := range branches {
		if !isEmpty(b) {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(branches) {
		return nil, false
	}
	if len(kept) == 0 {
		return plan.NewEmpty(branches[0].Schema()), true
	}
	return rebuild(all, kept...), true
}

func newUnion(all bool, branches ...sql.Node) sql.Node { return plan.NewUnion(all, branches...) }
