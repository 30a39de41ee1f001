package analyzer

import (
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/expression/function/aggregation"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
	"github.com/tidesql/tidesql/sql/types"
)

// decorrelateSubqueries implements §4.4's "Decorrelation of scalar
// subqueries" for the one shape it can rewrite with full confidence: a
// scalar subquery whose body is a single decomposable aggregate (SUM, COUNT,
// AVG, MIN, MAX — aggregation.IsDecomposable) over a scan filtered by
// exactly one `outer.col = inner.col` correlation. That body is pulled out
// into a GROUP BY on the correlated column and left-joined back to the
// outer query, replacing the per-row subquery evaluation with a single hash
// join; anything more elaborate (multiple correlations, correlated
// predicates beyond equality, non-decomposable aggregates) is left for the
// executor's row-at-a-time ctx.ExecPlan path, which remains correct for
// every shape this pass declines.
func decorrelateSubqueries(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	return transform.TransformUp(n, func(node sql.Node) (sql.Node, transform.TreeIdentity, error) {
		f, ok := isFilter(node)
		if !ok {
			return node, transform.SameTree, nil
		}
		newPred, left, changed := rewriteDecorrelatedComparisons(f.Predicate, f.Child)
		if !changed {
			return node, transform.SameTree, nil
		}
		return plan.NewFilter(newPred, left), transform.NewTree, nil
	})
}

// rewriteDecorrelatedComparisons finds `x <op> ScalarSubquery(...)` (or the
// mirrored form) inside pred, and for every one matching the decorrelatable
// shape, left-joins its pre-aggregated subquery onto left and rewrites the
// comparison to reference the joined-in aggregate column instead.
func rewriteDecorrelatedComparisons(pred sql.Expression, left sql.Node) (sql.Expression, sql.Node, bool) {
	changed := false
	out, _, _ := transform.TransformExprsUp(pred, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		b, ok := e.(*expression.BinaryOp)
		if !ok {
			return e, transform.SameTree, nil
		}
		children := b.Children()
		lhs, rhs := children[0], children[1]
		ss, onLeft := rhs.(*expression.ScalarSubquery)
		other := lhs
		if !onLeft {
			ss, onLeft = lhs.(*expression.ScalarSubquery)
			other = rhs
		}
		if ss == nil {
			return e, transform.SameTree, nil
		}
		agg, outerKey, innerKey, innerChild, ok := decorrelatableBody(ss.Query())
		if !ok {
			return e, transform.SameTree, nil
		}
		leftWidth := len(left.Schema())
		aggregated := plan.NewHashAggregate(
			[]sql.Expression{innerKey},
			[]string{"_decorrelated_key"},
			[]*expression.Aggregate{agg},
			[]string{"_decorrelated_agg"},
			innerChild,
		)
		left = plan.NewHashJoin(plan.JoinLeft, left, aggregated,
			[]sql.Expression{outerKey}, []sql.Expression{expression.NewGetFieldWithTable(0, innerKey.Type(), "", "_decorrelated_key", true)})
		aggCol := expression.NewGetFieldWithTable(leftWidth+1, agg.Type(), "", "_decorrelated_agg", true)
		var aggRef sql.Expression = aggCol
		if strings.EqualFold(agg.Func, "COUNT") {
			// An outer row with no matching group gets NULL from the left
			// join, where the subquery itself would have counted 0.
			aggRef = expression.NewCase([]expression.CaseBranch{{
				Cond:   expression.NewIsNull(aggCol, false),
				Result: expression.NewLiteral(types.NewInt64(0), types.Int64),
			}}, aggCol, agg.Type())
		}
		changed = true
		if onLeft {
			newChildren := []sql.Expression{other, aggRef}
			rebuilt, _ := b.WithChildren(newChildren...)
			return rebuilt, transform.NewTree, nil
		}
		newChildren := []sql.Expression{aggRef, other}
		rebuilt, _ := b.WithChildren(newChildren...)
		return rebuilt, transform.NewTree, nil
	})
	return out, left, changed
}

// decorrelatableBody recognizes HashAggregate(no group keys, [agg], Filter(
// OuterColumn = GetField | GetField = OuterColumn, scan)) and returns the
// single aggregate, the outer-side key expression, the inner-side key
// expression, and the scan to pre-aggregate.
func decorrelatableBody(query sql.Node) (*expression.Aggregate, sql.Expression, sql.Expression, sql.Node, bool) {
	agg, ok := query.(*plan.HashAggregate)
	if !ok || len(agg.GroupKeys) != 0 || len(agg.Aggregates) != 1 || !aggregation.IsDecomposable(agg.Aggregates[0].Func) {
		return nil, nil, nil, nil, false
	}
	filt, ok := agg.Child.(*plan.Filter)
	if !ok {
		return nil, nil, nil, nil, false
	}
	bin, ok := filt.Predicate.(*expression.BinaryOp)
	if !ok || bin.Op() != types.OpEq {
		return nil, nil, nil, nil, false
	}
	children := bin.Children()
	left, right := children[0], children[1]
	if oc, ok := left.(*expression.OuterColumn); ok {
		return agg.Aggregates[0], outerColumnAsGetField(oc), right, filt.Child, true
	}
	if oc, ok := right.(*expression.OuterColumn); ok {
		return agg.Aggregates[0], outerColumnAsGetField(oc), left, filt.Child, true
	}
	return nil, nil, nil, nil, false
}

func outerColumnAsGetField(oc *expression.OuterColumn) sql.Expression {
	return expression.NewGetFieldWithTable(oc.Index(), oc.Type(), oc.Table(), oc.Name(), oc.Nullable())
}
