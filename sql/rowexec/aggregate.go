package rowexec

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/expression/function/aggregation"
	"github.com/tidesql/tidesql/sql/hash"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execHashAggregate implements §4.5's two aggregation code paths: a
// columnar fast path for the common no-group-keys, no-DISTINCT, no-FILTER
// shape, and a general hash-table path covering GROUP BY, ROLLUP/CUBE/
// GROUPING SETS, DISTINCT and FILTER.
func execHashAggregate(ctx *sql.Context, h *plan.HashAggregate) (*sql.TableData, error) {
	child, err := Exec(ctx, h.Child)
	if err != nil {
		return nil, err
	}
	if len(h.GroupKeys) == 0 && len(h.ActiveSets()) == 1 && fastPathEligible(h) {
		return execHashAggregateFast(ctx, h, child)
	}
	return execHashAggregateGeneral(ctx, h, child)
}

// fastPathEligible reports whether every aggregate is a plain, single
// column, non-DISTINCT, non-FILTER COUNT/COUNT(*)/SUM/AVG/MIN/MAX call
// (§4.5 "Columnar fast path").
func fastPathEligible(h *plan.HashAggregate) bool {
	for _, a := range h.Aggregates {
		if a.Distinct || a.Filter != nil || len(a.OrderBy) > 0 {
			return false
		}
		switch a.Func {
		case "COUNT", "SUM", "AVG", "MIN", "MAX":
			if len(a.Args) > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// execHashAggregateFast drives one accumulator per aggregate directly over
// child's columns, skipping the general path's per-row bucket lookup.
func execHashAggregateFast(ctx *sql.Context, h *plan.HashAggregate, child *sql.TableData) (*sql.TableData, error) {
	accs, err := newBucketAccumulators(h.Aggregates)
	if err != nil {
		return nil, err
	}
	if err := parallelUpdate(ctx, child, h.Aggregates, accs); err != nil {
		return nil, err
	}
	out := sql.EmptyTableData(h.Schema())
	row := make(sql.Row, len(h.Aggregates))
	for i, acc := range accs {
		v, err := acc.Finalize()
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	if err := out.AppendRow(row); err != nil {
		return nil, err
	}
	return out, nil
}

// parallelUpdate splits child's rows across at most GOMAXPROCS chunks
// (further capped by the session's Parallelism when that is set), runs
// independent accumulator sets per chunk concurrently, then merges them
// (§4.5 "parallel partial/merge aggregation ... merging must be
// associative and commutative per accumulator"). Falls back to a single
// sequential pass when any accumulator involved is not mergeable.
func parallelUpdate(ctx *sql.Context, t *sql.TableData, aggs []*expression.Aggregate, out []aggregation.Accumulator) error {
	n := t.RowCount()
	workers := runtime.GOMAXPROCS(0)
	if ctx.Session != nil && ctx.Session.Parallelism > 0 && ctx.Session.Parallelism < workers {
		workers = ctx.Session.Parallelism
	}
	if workers < 1 {
		workers = 1
	}
	if n == 0 || workers == 1 {
		return updateRange(ctx, t, aggs, out, 0, n)
	}
	for _, acc := range out {
		if !acc.IsMergeable() {
			return updateRange(ctx, t, aggs, out, 0, n)
		}
	}
	chunk := (n + workers - 1) / workers
	partials := make([][]aggregation.Accumulator, 0, workers)
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		part, err := newBucketAccumulators(aggs)
		if err != nil {
			return err
		}
		partials = append(partials, part)
		start, end, part := start, end, part
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			return updateRange(ctx, t, aggs, part, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, part := range partials {
		for i, acc := range out {
			if err := acc.Merge(part[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func updateRange(ctx *sql.Context, t *sql.TableData, aggs []*expression.Aggregate, accs []aggregation.Accumulator, start, end int) error {
	for i := start; i < end; i++ {
		rec := t.Record(i)
		for ai, agg := range aggs {
			if err := updateAccumulator(ctx, accs[ai], agg, rec, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// newBucketAccumulators constructs one fresh accumulator per aggregate,
// special-casing COUNT(*) (zero-arg COUNT) to CountStar since
// aggregation.New only produces the row-counting Count for COUNT(col).
func newBucketAccumulators(aggs []*expression.Aggregate) ([]aggregation.Accumulator, error) {
	out := make([]aggregation.Accumulator, len(aggs))
	for i, a := range aggs {
		if strings.ToUpper(a.Func) == "COUNT" && len(a.Args) == 0 {
			out[i] = &aggregation.CountStar{}
			continue
		}
		if strings.ToUpper(a.Func) == "GROUPING" || strings.ToUpper(a.Func) == "GROUPING_ID" {
			out[i] = nil // computed directly from grouping-set membership, not accumulated
			continue
		}
		var argType types.DataType
		if len(a.Args) > 0 {
			argType = a.Args[0].Type()
		}
		acc, ok := aggregation.New(a.Func, argType, a.Type())
		if !ok {
			return nil, fmt.Errorf("rowexec: unknown aggregate function %s", a.Func)
		}
		if ag, ok := acc.(*aggregation.ArrayAgg); ok {
			ag.SetIgnoreNulls(a.IgnoreNulls)
		}
		acc.Start()
		out[i] = acc
	}
	return out, nil
}

// updateAccumulator evaluates agg's Filter and Args against rec and feeds
// the result to acc, dispatching to UpdatePair for the two-argument
// aggregates (§4.5): CORR/COVAR_SAMP/COVAR_POP take (y, x) and
// APPROX_TOP_SUM takes (value, weight), a different argument order that
// must be special-cased by concrete accumulator type rather than by arity
// alone. orderKeys, when non-nil, collects ORDER BY sort keys in step with
// each Update call so ArrayAgg can reorder at Finalize time.
func updateAccumulator(ctx *sql.Context, acc aggregation.Accumulator, agg *expression.Aggregate, rec sql.Record, orderKeys *[][]types.Value) error {
	if acc == nil {
		return nil // GROUPING/GROUPING_ID
	}
	if agg.Filter != nil {
		ok, err := evalBool(ctx, agg.Filter, rec)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	args := make([]types.Value, len(agg.Args))
	for i, a := range agg.Args {
		v, err := a.Eval(ctx, rec)
		if err != nil {
			return err
		}
		args[i] = v
	}
	switch a := acc.(type) {
	case *aggregation.Covariance:
		if len(args) != 2 {
			return fmt.Errorf("rowexec: %s requires 2 arguments", agg.Func)
		}
		return a.UpdatePair(args[0], args[1])
	case *aggregation.Correlation:
		if len(args) != 2 {
			return fmt.Errorf("rowexec: %s requires 2 arguments", agg.Func)
		}
		return a.UpdatePair(args[0], args[1])
	case *aggregation.ApproxTopSum:
		if len(args) != 2 {
			return fmt.Errorf("rowexec: %s requires 2 arguments", agg.Func)
		}
		return a.UpdatePair(args[0], args[1])
	}
	var v types.Value
	if len(args) > 0 {
		v = args[0]
	} else {
		v = types.NewBool(true) // COUNT(*): CountStar ignores the value
	}
	if err := acc.Update(v); err != nil {
		return err
	}
	if orderKeys != nil {
		keys := make([]types.Value, len(agg.OrderBy))
		for i, o := range agg.OrderBy {
			kv, err := o.Expr.Eval(ctx, rec)
			if err != nil {
				return err
			}
			keys[i] = kv
		}
		*orderKeys = append(*orderKeys, keys)
	}
	return nil
}

// bucket is one group's accumulator state in the general hash-aggregation
// path, keyed by (grouping-set index, masked key tuple).
type bucket struct {
	setIdx    int
	keyRow    sql.Row
	accs      []aggregation.Accumulator
	orderKeys [][][]types.Value // per-aggregate ORDER BY keys, for ArrayAgg
	distinct  []map[uint64]struct{}
}

func execHashAggregateGeneral(ctx *sql.Context, h *plan.HashAggregate, child *sql.TableData) (*sql.TableData, error) {
	sets := h.ActiveSets()
	buckets := map[string]*bucket{}
	order := make([]*bucket, 0)

	for si, set := range sets {
		active := make(map[int]bool, len(set))
		for _, k := range set {
			active[k] = true
		}
		for ri := 0; ri < child.RowCount(); ri++ {
			rec := child.Record(ri)
			keyRow := make(sql.Row, len(h.GroupKeys))
			for ki, k := range h.GroupKeys {
				if !active[ki] {
					keyRow[ki] = types.Null
					continue
				}
				v, err := k.Eval(ctx, rec)
				if err != nil {
					return nil, err
				}
				keyRow[ki] = v
			}
			bk := bucketKey(si, keyRow)
			b, ok := buckets[bk]
			if !ok {
				accs, err := newBucketAccumulators(h.Aggregates)
				if err != nil {
					return nil, err
				}
				b = &bucket{
					setIdx:    si,
					keyRow:    keyRow,
					accs:      accs,
					orderKeys: make([][][]types.Value, len(h.Aggregates)),
					distinct:  make([]map[uint64]struct{}, len(h.Aggregates)),
				}
				buckets[bk] = b
				order = append(order, b)
			}
			for ai, agg := range h.Aggregates {
				if agg.Distinct {
					hv, err := distinctArgHash(ctx, agg, rec)
					if err != nil {
						return nil, err
					}
					if b.distinct[ai] == nil {
						b.distinct[ai] = map[uint64]struct{}{}
					}
					if _, seen := b.distinct[ai][hv]; seen {
						continue
					}
					b.distinct[ai][hv] = struct{}{}
				}
				var ok *[][]types.Value
				if len(agg.OrderBy) > 0 {
					ok = &b.orderKeys[ai]
				}
				if err := updateAccumulator(ctx, b.accs[ai], agg, rec, ok); err != nil {
					return nil, err
				}
			}
		}
	}

	out := sql.EmptyTableData(h.Schema())
	for _, b := range order {
		row := make(sql.Row, 0, len(h.GroupKeys)+len(h.Aggregates))
		row = append(row, b.keyRow...)
		active := map[int]bool{}
		for _, k := range sets[b.setIdx] {
			active[k] = true
		}
		for ai, agg := range h.Aggregates {
			switch strings.ToUpper(agg.Func) {
			case "GROUPING":
				row = append(row, types.NewInt64(groupingBit(agg, h.GroupKeys, active)))
				continue
			case "GROUPING_ID":
				row = append(row, types.NewInt64(packGroupingID(agg, h.GroupKeys, active)))
				continue
			}
			if ag, ok := b.accs[ai].(*aggregation.ArrayAgg); ok && len(agg.OrderBy) > 0 {
				desc := make([]bool, len(agg.OrderBy))
				nullsFirst := make([]bool, len(agg.OrderBy))
				for i, o := range agg.OrderBy {
					desc[i] = o.Desc
					nullsFirst[i] = o.NullsFirst
				}
				ag.SortByKeys(b.orderKeys[ai], desc, nullsFirst)
			}
			v, err := b.accs[ai].Finalize()
			if err != nil {
				return nil, err
			}
			if agg.Limit >= 0 {
				v = applyAggLimit(v, agg.Limit)
			}
			row = append(row, v)
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// applyAggLimit truncates an ARRAY_AGG(... LIMIT n) result to its first n
// elements; every other aggregate ignores Limit.
func applyAggLimit(v types.Value, limit int) types.Value {
	if v.Kind() != types.KindArray {
		return v
	}
	vals := v.AsArray()
	if limit < len(vals) {
		vals = vals[:limit]
	}
	return types.NewArray(v.ArrayElemType(), vals)
}

func distinctArgHash(ctx *sql.Context, agg *expression.Aggregate, rec sql.Record) (uint64, error) {
	row := make(sql.Row, len(agg.Args))
	for i, a := range agg.Args {
		v, err := a.Eval(ctx, rec)
		if err != nil {
			return 0, err
		}
		row[i] = v
	}
	return hash.OfRow(row), nil
}

func bucketKey(setIdx int, keyRow sql.Row) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:", setIdx)
	for _, v := range keyRow {
		fmt.Fprintf(&sb, "%v|", v.Raw())
	}
	return sb.String()
}

// groupingBit implements GROUPING(e): 0 if e's grouping key is active in
// this set, 1 otherwise (§4.5, §9 "MSB = leftmost arg").
func groupingBit(agg *expression.Aggregate, groupKeys []sql.Expression, active map[int]bool) int64 {
	idx := groupKeyIndex(agg.Args[0], groupKeys)
	if idx < 0 || active[idx] {
		return 0
	}
	return 1
}

// packGroupingID implements GROUPING_ID(e1,...,ek): the bits of GROUPING
// for each argument packed MSB-first, e1 in the highest bit (§9 "the
// helpers::set_grouping_value path is used for both GROUPING and
// GROUPING_ID; specification fixes only bit-ordering").
func packGroupingID(agg *expression.Aggregate, groupKeys []sql.Expression, active map[int]bool) int64 {
	var id int64
	for i, arg := range agg.Args {
		idx := groupKeyIndex(arg, groupKeys)
		bit := int64(0)
		if idx < 0 || !active[idx] {
			bit = 1
		}
		id |= bit << uint(len(agg.Args)-1-i)
	}
	return id
}

func groupKeyIndex(e sql.Expression, groupKeys []sql.Expression) int {
	for i, k := range groupKeys {
		if k.String() == e.String() {
			return i
		}
	}
	return -1
}
