package analyzer

import (
	"sort"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// reorderShortCircuit implements §4.4's "Short-circuit ordering": a filter's
// AND conjuncts are stably reordered cheapest-first, so a row is rejected by
// a column comparison before any correlated subquery or function call in a
// later conjunct ever runs.
func reorderShortCircuit(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		conjuncts := splitConjuncts(f.Predicate)
		if len(conjuncts) < 2 {
			return node, transform.SameTree, nil
		}
		ordered := append([]sql.Expression{}, conjuncts...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return predicateCost(ordered[i]) < predicateCost(ordered[j])
		})
		same := true
		for i := range ordered {
			if !exprEqual(ordered[i], conjuncts[i]) {
				same = false
				break
			}
		}
		if same {
			return node, transform.SameTree, nil
		}
		return plan.NewFilter(joinConjuncts(ordered), f.Child), transform.NewTree, nil
	})
}

// predicateCost ranks a conjunct's relative evaluation cost: plain column
// comparisons first, then function calls, with any subquery-bearing
// conjunct pushed last regardless of its other structure.
func predicateCost(e sql.Expression) int {
	cost := 0
	containsSubquery := false
	transform.InspectExpr(e, func(x sql.Expression) bool {
		switch x.(type) {
		case expression.Subquery, *expression.ScalarSubquery, *expression.ArraySubquery, *expression.InSubquery, *expression.Exists:
			containsSubquery = true
		case *expression.GetField, *expression.Literal:
		default:
			cost++
		}
		return true
	})
	if containsSubquery {
		return 1000 + cost
	}
	return cost
}
