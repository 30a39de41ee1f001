package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// eliminateSort implements §4.4's "Sort elimination": a Sort feeding
// directly into another Sort only has its keys observed by the outer one,
// so the inner sort is redundant; a Sort feeding into a hash-based Distinct
// likewise contributes nothing since Distinct does not preserve order.
func eliminateSort(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		switch t := node.(type) {
		case *plan.Sort:
			if inner, ok := t.Child.(*plan.Sort); ok {
				return plan.NewSort(t.Keys, inner.Child), transform.NewTree, nil
			}
		case *plan.Distinct:
			if inner, ok := t.Child.(*plan.Sort); ok {
				return plan.NewDistinct(inner.Child), transform.NewTree, nil
			}
		}
		return node, transform.SameTree, nil
	})
}
