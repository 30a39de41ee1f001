package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// removeTrivialPredicates implements §4.4's "Trivial predicate removal":
// a constant-TRUE Filter vanishes, a constant-FALSE Filter becomes Empty
// with the same schema, and TRUE conjuncts drop out of AND chains.
func removeTrivialPredicates(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		conjuncts := splitConjuncts(f.Predicate)
		kept := conjuncts[:0:0]
		for _, c := range conjuncts {
			if isLiteralBool(c, false) {
				return plan.NewEmpty(f.Schema()), transform.NewTree, nil
			}
			if isLiteralBool(c, true) {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == len(conjuncts) {
			return node, transform.SameTree, nil
		}
		if len(kept) == 0 {
			return f.Child, transform.NewTree, nil
		}
		return plan.NewFilter(joinConjuncts(kept), f.Child), transform.NewTree, nil
	})
}
