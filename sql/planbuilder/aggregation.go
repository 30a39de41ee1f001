package planbuilder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/transform"
)

// collectAggregates walks every expression in cols (plus extra, for HAVING)
// and returns the distinct *expression.Aggregate markers found, in order of
// first appearance.
func collectAggregates(cols []selectColumn, extra sql.Expression) []*expression.Aggregate {
	seen := make(map[*expression.Aggregate]bool)
	var out []*expression.Aggregate
	visit := func(e sql.Expression) {
		if e == nil {
			return
		}
		transform.InspectExpr(e, func(x sql.Expression) bool {
			if agg, ok := x.(*expression.Aggregate); ok && !seen[agg] {
				seen[agg] = true
				out = append(out, agg)
			}
			return true
		})
	}
	for _, c := range cols {
		visit(c.expr)
	}
	visit(extra)
	return out
}

func hasAggregate(cols []selectColumn, extra sql.Expression) bool {
	return len(collectAggregates(cols, extra)) > 0
}

// buildAggregation inserts a HashAggregate (and, when present, the HAVING
// filter over it) between node and the final projection whenever the query
// groups or uses an aggregate function, rewriting selectCols in place so
// every GROUP BY key and aggregate call becomes a GetField into the
// aggregate's output row (§4.2 "an aggregate/window call is a marker, not a
// value producer").
func (b *Builder) buildAggregation(rowScope *scope, node sql.Node, n *ast.Select, selectCols []selectColumn) (sql.Node, *scope, []selectColumn, error) {
	var havingRaw sql.Expression
	var err error
	if n.Having != nil {
		havingRaw, err = b.buildExpr(rowScope, n.Having.Expr)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if n.GroupBy == nil && !hasAggregate(selectCols, havingRaw) {
		if havingRaw != nil {
			node = plan.NewFilter(havingRaw, node)
		}
		return node, rowScope, selectCols, nil
	}

	var groupKeys []sql.Expression
	var groupNames []string
	if n.GroupBy != nil {
		for i, e := range n.GroupBy.Exprs {
			var ge sql.Expression
			if iv, ok := e.(ast.IntVal); ok {
				if pos, perr := strconv.Atoi(string(iv)); perr == nil && pos >= 1 && pos <= len(selectCols) {
					ge = selectCols[pos-1].expr
				}
			}
			if ge == nil {
				ge, err = b.buildExpr(rowScope, e)
				if err != nil {
					return nil, nil, nil, err
				}
			}
			groupKeys = append(groupKeys, ge)
			name := defaultColumnName(e)
			if name == "" {
				name = fmt.Sprintf("group_%d", i)
			}
			groupNames = append(groupNames, name)
		}
	}

	aggs := collectAggregates(selectCols, havingRaw)
	aggNames := make([]string, len(aggs))
	for i, agg := range aggs {
		aggNames[i] = fmt.Sprintf("%s_%d", strings.ToLower(agg.Func), i)
	}

	hashAgg := plan.NewHashAggregate(groupKeys, groupNames, aggs, aggNames, node)
	if n.GroupBy != nil {
		switch {
		case n.GroupBy.Rollup:
			hashAgg = hashAgg.WithGroupingSets(plan.Rollup(len(groupKeys)))
		case n.GroupBy.Cube:
			hashAgg = hashAgg.WithGroupingSets(plan.Cube(len(groupKeys)))
		case len(n.GroupBy.GroupingSets) > 0:
			sets, serr := b.buildGroupingSets(rowScope, groupKeys, n.GroupBy.GroupingSets)
			if serr != nil {
				return nil, nil, nil, serr
			}
			hashAgg = hashAgg.WithGroupingSets(sets)
		}
	}

	groupGetters := make([]sql.Expression, len(groupKeys))
	aggSchema := hashAgg.Schema()
	for i := range groupKeys {
		f := aggSchema[i]
		groupGetters[i] = expression.NewGetFieldWithTable(i, f.Type, f.Table, f.Name, f.Nullable)
	}
	aggMap := make(map[*expression.Aggregate]sql.Expression, len(aggs))
	for i, agg := range aggs {
		f := aggSchema[len(groupKeys)+i]
		aggMap[agg] = expression.NewGetFieldWithTable(len(groupKeys)+i, f.Type, f.Table, f.Name, f.Nullable)
	}

	replace := func(e sql.Expression) (sql.Expression, bool, error) {
		for i, k := range groupKeys {
			if exprEqual(e, k) {
				return groupGetters[i], true, nil
			}
		}
		if agg, ok := e.(*expression.Aggregate); ok {
			if r, ok := aggMap[agg]; ok {
				return r, true, nil
			}
		}
		return nil, false, nil
	}

	for i, c := range selectCols {
		rewritten, serr := substituteTopDown(c.expr, replace)
		if serr != nil {
			return nil, nil, nil, serr
		}
		selectCols[i].expr = rewritten
	}

	var aggNode sql.Node = hashAgg
	if havingRaw != nil {
		havingRewritten, serr := substituteTopDown(havingRaw, replace)
		if serr != nil {
			return nil, nil, nil, serr
		}
		aggNode = plan.NewFilter(havingRewritten, aggNode)
	}

	postScope := rowScope.push()
	postScope.node, postScope.schema = aggNode, aggNode.Schema()
	return aggNode, postScope, selectCols, nil
}

// buildGroupingSets maps each explicit `GROUPING SETS ((a,b),(a),())` entry
// onto indices into groupKeys by structural match.
func (b *Builder) buildGroupingSets(s *scope, groupKeys []sql.Expression, sets [][]ast.Expr) ([]plan.GroupingSet, error) {
	out := make([]plan.GroupingSet, len(sets))
	for i, set := range sets {
		gs := make(plan.GroupingSet, 0, len(set))
		for _, e := range set {
			built, err := b.buildExpr(s, e)
			if err != nil {
				return nil, err
			}
			idx := -1
			for k, key := range groupKeys {
				if exprEqual(built, key) {
					idx = k
					break
				}
			}
			if idx == -1 {
				return nil, errInvalid("GROUPING SETS entry is not one of the GROUP BY keys")
			}
			gs = append(gs, idx)
		}
		out[i] = gs
	}
	return out, nil
}

// extractWindowFuncs collects every *expression.Window marker across
// selectCols, builds a plan.Window over node evaluating them, and rewrites
// selectCols to reference its output columns by position.
func (b *Builder) extractWindowFuncs(postScope *scope, node sql.Node, selectCols []selectColumn) (sql.Node, *scope, []selectColumn, error) {
	seen := make(map[*expression.Window]bool)
	var wins []*expression.Window
	for _, c := range selectCols {
		transform.InspectExpr(c.expr, func(x sql.Expression) bool {
			if w, ok := x.(*expression.Window); ok && !seen[w] {
				seen[w] = true
				wins = append(wins, w)
			}
			return true
		})
	}
	if len(wins) == 0 {
		return node, postScope, selectCols, nil
	}

	names := make([]string, len(wins))
	for i, w := range wins {
		names[i] = fmt.Sprintf("%s_%d", strings.ToLower(w.Func), i)
	}
	winNode := plan.NewWindow(wins, names, node)
	base := len(winNode.Schema()) - len(wins)
	winMap := make(map[*expression.Window]sql.Expression, len(wins))
	schema := winNode.Schema()
	for i, w := range wins {
		f := schema[base+i]
		winMap[w] = expression.NewGetFieldWithTable(base+i, f.Type, f.Table, f.Name, f.Nullable)
	}
	replace := func(e sql.Expression) (sql.Expression, bool, error) {
		if w, ok := e.(*expression.Window); ok {
			if r, ok := winMap[w]; ok {
				return r, true, nil
			}
		}
		return nil, false, nil
	}
	for i, c := range selectCols {
		rewritten, err := substituteTopDown(c.expr, replace)
		if err != nil {
			return nil, nil, nil, err
		}
		selectCols[i].expr = rewritten
	}

	newScope := postScope.push()
	newScope.node, newScope.schema = winNode, winNode.Schema()
	return winNode, newScope, selectCols, nil
}
