// Package analyzer implements the optimizer's ordered, bounded fixed-point
// rewrite pipeline (§4.4): one file per pass, driven to convergence (or a
// small iteration cap) by Optimize. Grounded on the teacher's
// sql/analyzer/*_test.go pass names (pushdown, prune_columns,
// optimize_joins, parallelize, replace_cross_joins, resolve_subqueries) and
// on sql/transform's TransformUp/TransformExprsUp for the tree walks.
package analyzer

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/transform"
)

// maxIterations bounds the fixed-point loop (§4.4 "capped at a small
// constant (<=8) to prevent pathological oscillation").
const maxIterations = 8

// rule is one rewrite pass; it returns the rewritten node and whether it
// changed anything, matching transform.NodeFunc's TreeIdentity convention.
type rule func(n sql.Node) (sql.Node, transform.TreeIdentity, error)

// rules lists the pipeline in the order the pass-ordering invariant of
// §4.4 requires: trivial -> empty -> filter-merge -> simplify ->
// pushdown(aggregate/window/join) -> outer->inner -> cross->hash ->
// project-merge -> distinct-elim -> sort-elim -> limit/TopN pushdown ->
// inference -> short-circuit -> projection-pushdown -> join-elim ->
// decorrelation.
var rules = []rule{
	removeTrivialPredicates,
	propagateEmpty,
	mergeFilters,
	simplifyPredicates,
	pushdownFilters,
	outerToInner,
	crossToHash,
	mergeProjects,
	eliminateDistinct,
	eliminateSort,
	pushdownLimits,
	inferPredicates,
	reorderShortCircuit,
	pushdownProjections,
	eliminateJoins,
	decorrelateSubqueries,
}

// Optimize runs the rule pipeline to a fixed point, capped at
// maxIterations passes over the full rule list (§4.4).
func Optimize(n sql.Node) (sql.Node, error) {
	cur := n
	for i := 0; i < maxIterations; i++ {
		changedThisRound := false
		for _, r := range rules {
			out, same, err := r(cur)
			if err != nil {
				return nil, err
			}
			if same.Changed() {
				changedThisRound = true
				cur = out
			}
		}
		if !changedThisRound {
			break
		}
	}
	return cur, nil
}
