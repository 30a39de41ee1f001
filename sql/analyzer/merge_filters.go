package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// mergeFilters implements §4.4's "Filter merging": stacked
// Filter(Filter(p1, p2)) collapses to a single Filter over the conjunction
// of p1 and p2, avoiding a redundant row pass at execution time.
func mergeFilters(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		outer, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		inner, ok := isFilter(outer.Child)
		if !ok {
			return node, transform.SameTree, nil
		}
		merged := joinConjuncts(append(splitConjuncts(inner.Predicate), splitConjuncts(outer.Predicate)...))
		return plan.NewFilter(merged, inner.Child), transform.NewTree, nil
	})
}
