package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// eliminateDistinct implements §4.4's "Distinct elimination": a Distinct is
// dropped when its child can already only produce distinct rows — a nested
// Distinct, or a HashAggregate (every output row carries its own group-key
// tuple, so two rows can never coincide).
func eliminateDistinct(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		d, ok := node.(*plan.Distinct)
		if !ok {
			return node, transform.SameTree, nil
		}
		switch d.Child.(type) {
		case *plan.Distinct, *plan.HashAggregate:
			return d.Child, transform.NewTree, nil
		}
		return node, transform.SameTree, nil
	})
}
