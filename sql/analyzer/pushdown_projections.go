package analyzer

import (
	"sort"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// pushdownProjections implements §4.4's "Projection pushdown" for the
// common `Project(..., [Filter(..., )] TableScan)` shape: the scan is
// narrowed to only the column positions the filter and projection actually
// reference, and every GetField in that subtree is remapped onto the
// narrower schema. Scans reached through a join or an aggregate are left to
// materialize their full schema, since remapping indices safely across
// those node boundaries needs more bookkeeping than the common case
// rewards.
func pushdownProjections(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		p, ok := node.(*plan.Project)
		if !ok {
			return node, transform.SameTree, nil
		}
		var scan *plan.TableScan
		var filterPred sql.Expression
		switch child := p.Child.(type) {
		case *plan.TableScan:
			scan = child
		case *plan.Filter:
			if ts, ok := child.Child.(*plan.TableScan); ok {
				scan = ts
				filterPred = child.Predicate
			}
		}
		if scan == nil || scan.Projection != nil {
			return node, transform.SameTree, nil
		}
		used := map[int]bool{}
		for _, c := range p.Columns {
			for i := range referencedIndices(c.Expr) {
				used[i] = true
			}
		}
		if filterPred != nil {
			for i := range referencedIndices(filterPred) {
				used[i] = true
			}
		}
		full := len(scan.Schema())
		if len(used) == 0 || len(used) >= full {
			return node, transform.SameTree, nil
		}
		positions := make([]int, 0, len(used))
		for i := range used {
			positions = append(positions, i)
		}
		sort.Ints(positions)
		remap := make(map[int]int, len(positions))
		for newIdx, oldIdx := range positions {
			remap[oldIdx] = newIdx
		}
		narrowScan := scan.WithProjection(positions)
		var newChild sql.Node = narrowScan
		if filterPred != nil {
			newChild = plan.NewFilter(remapIndices(filterPred, remap), narrowScan)
		}
		cols := make([]plan.ProjectColumn, len(p.Columns))
		for i, c := range p.Columns {
			cols[i] = plan.ProjectColumn{Expr: remapIndices(c.Expr, remap), Field: c.Field}
		}
		return plan.NewProject(cols, newChild), transform.NewTree, nil
	})
}

// remapIndices rewrites every GetField in e according to remap, leaving
// unmapped indices untouched (the caller guarantees every reachable index
// is covered).
func remapIndices(e sql.Expression, remap map[int]int) sql.Expression {
	if gf, ok := e.(*expression.GetField); ok {
		if nv, ok := remap[gf.Index()]; ok {
			return expression.NewGetFieldWithTable(nv, gf.Type(), gf.Table(), gf.Name(), gf.Nullable())
		}
		return e
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		newChildren[i] = remapIndices(c, remap)
	}
	out, err := e.WithChildren(newChildren...)
	if err != nil {
		return e
	}
	return out
}
