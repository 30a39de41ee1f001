package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// eliminateJoins implements a narrow, always-safe instance of §4.4's "Join
// elimination": a CROSS or INNER join against a single-row, zero-column
// Values node (the implicit "dual" row a FROM-less SELECT desugars to)
// neither changes the other side's cardinality nor contributes any output
// column, so it is dropped outright. Because the eliminated side has zero
// width, removing it shifts no GetField index on the surviving side.
func eliminateJoins(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		switch t := node.(type) {
		case *plan.CrossJoin:
			if isDualValues(t.Left) {
				return t.Right, transform.NewTree, nil
			}
			if isDualValues(t.Right) {
				return t.Left, transform.NewTree, nil
			}
		case *plan.HashJoin:
			if t.Type == plan.JoinInner {
				if isDualValues(t.Left) {
					return t.Right, transform.NewTree, nil
				}
				if isDualValues(t.Right) {
					return t.Left, transform.NewTree, nil
				}
			}
		}
		return node, transform.SameTree, nil
	})
}

func isDualValues(n sql.Node) bool {
	v, ok := n.(*plan.Values)
	return ok && len(v.Rows) == 1 && len(v.Schema()) == 0
}
