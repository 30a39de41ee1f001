package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// pushdownLimits implements §4.4's "Limit/TopN pushdown": a zero-offset
// Limit directly over a Sort fuses into a single bounded-heap TopN; a Limit
// commutes below a Project (column computation doesn't care how many rows
// survive); and a TopN above a UNION ALL is replicated into every branch,
// since the global top N rows can only be drawn from each branch's own top
// N (unsound for UNION DISTINCT, where a branch's dropped rows might still
// be needed to decide set membership).
func pushdownLimits(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		switch t := node.(type) {
		case *plan.Limit:
			if t.Offset == 0 {
				if s, ok := t.Child.(*plan.Sort); ok {
					return plan.NewTopN(int(t.N), s.Keys, s.Child), transform.NewTree, nil
				}
			}
			if p, ok := t.Child.(*plan.Project); ok {
				return plan.NewProject(p.Columns, plan.NewLimit(t.N, p.Child).WithOffset(t.Offset)), transform.NewTree, nil
			}
		case *plan.TopN:
			if u, ok := t.Child.(*plan.Union); ok && u.All && !branchesAlreadyTopped(u.Branches) {
				pushed := make([]sql.Node, len(u.Branches))
				for i, b := range u.Branches {
					pushed[i] = plan.NewTopN(t.N, t.Keys, b)
				}
				return plan.NewTopN(t.N, t.Keys, plan.NewUnion(true, pushed...)), transform.NewTree, nil
			}
		}
		return node, transform.SameTree, nil
	})
}

func branchesAlreadyTopped(branches []sql.Node) bool {
	for _, b := range branches {
		if _, ok := b.(*plan.TopN); !ok {
			return false
		}
	}
	return len(branches) > 0
}
