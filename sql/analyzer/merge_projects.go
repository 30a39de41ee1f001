package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// mergeProjects implements §4.4's "Project merging": a Project stacked
// directly on another Project is collapsed into one, substituting the
// inner projection's expressions into the outer one so only a single
// evaluation pass is needed at execution time.
func mergeProjects(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		outer, ok := node.(*plan.Project)
		if !ok {
			return node, transform.SameTree, nil
		}
		inner, ok := outer.Child.(*plan.Project)
		if !ok {
			return node, transform.SameTree, nil
		}
		cols := make([]plan.ProjectColumn, len(outer.Columns))
		for i, c := range outer.Columns {
			cols[i] = plan.ProjectColumn{Expr: substituteProject(c.Expr, inner), Field: c.Field}
		}
		return plan.NewProject(cols, inner.Child), transform.NewTree, nil
	})
}
