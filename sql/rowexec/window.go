package rowexec

import (
	"fmt"
	"sort"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/expression/function/aggregation"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execWindow evaluates every OVER(...) call against Child, appending one
// output column per func (§3 "Window", §4.5). Rows are grouped into
// partitions, each partition ordered by its OrderBy, and each func is
// computed either as a ranking/navigation function over the whole ordered
// partition or as an accumulator run across the func's frame.
func execWindow(ctx *sql.Context, w *plan.Window) (*sql.TableData, error) {
	child, err := Exec(ctx, w.Child)
	if err != nil {
		return nil, err
	}
	n := child.RowCount()
	outCols := make([][]types.Value, len(w.Funcs))
	for i := range outCols {
		outCols[i] = make([]types.Value, n)
	}
	for fi, fn := range w.Funcs {
		partitions, err := partitionRows(ctx, child, fn.PartitionBy)
		if err != nil {
			return nil, err
		}
		for _, part := range partitions {
			ordered, err := orderPartition(ctx, child, part, fn.OrderBy)
			if err != nil {
				return nil, err
			}
			vals, err := evalWindowFunc(ctx, child, fn, ordered)
			if err != nil {
				return nil, err
			}
			for i, rowIdx := range ordered {
				outCols[fi][rowIdx] = vals[i]
			}
		}
	}
	schema := w.Schema()
	base := child
	out := sql.EmptyTableData(schema)
	for i := 0; i < n; i++ {
		row := append(sql.Row{}, base.Row(i)...)
		for fi := range w.Funcs {
			row = append(row, outCols[fi][i])
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// partitionRows groups row indices by PartitionBy key, preserving each
// partition's relative row order (later stably re-ordered by OrderBy).
func partitionRows(ctx *sql.Context, t *sql.TableData, partitionBy []sql.Expression) ([][]int, error) {
	if len(partitionBy) == 0 {
		all := make([]int, t.RowCount())
		for i := range all {
			all[i] = i
		}
		return [][]int{all}, nil
	}
	keyOf := make([]sql.Row, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		rec := t.Record(i)
		key := make(sql.Row, len(partitionBy))
		for k, e := range partitionBy {
			v, err := e.Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			key[k] = v
		}
		keyOf[i] = key
	}
	order := make([]int, t.RowCount())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keysLess(keyOf[order[a]], keyOf[order[b]])
	})
	var partitions [][]int
	var cur []int
	for _, i := range order {
		if len(cur) > 0 && !rowsEqual(keyOf[cur[0]], keyOf[i]) {
			partitions = append(partitions, cur)
			cur = nil
		}
		cur = append(cur, i)
	}
	if len(cur) > 0 {
		partitions = append(partitions, cur)
	}
	return partitions, nil
}

func keysLess(a, b sql.Row) bool {
	for i := range a {
		c := types.Compare(a[i], b[i], types.NullsLast)
		if c != 0 {
			return c < 0
		}
	}
	return false
}

func orderPartition(ctx *sql.Context, t *sql.TableData, part []int, orderBy []sql.SortField) ([]int, error) {
	if len(orderBy) == 0 {
		return part, nil
	}
	keys := make([]sql.Row, len(part))
	for i, rowIdx := range part {
		rec := t.Record(rowIdx)
		key := make(sql.Row, len(orderBy))
		for k, f := range orderBy {
			v, err := f.Expr.Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			key[k] = v
		}
		keys[i] = key
	}
	ordered := append([]int{}, part...)
	sort.SliceStable(ordered, func(a, b int) bool {
		ia, ib := indexOf(part, ordered[a]), indexOf(part, ordered[b])
		for k, f := range orderBy {
			nulls := types.NullsLast
			if f.NullsFirst {
				nulls = types.NullsFirst
			}
			c := types.Compare(keys[ia][k], keys[ib][k], nulls)
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return ordered, nil
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// evalWindowFunc computes fn's value for every row of an already
// partitioned-and-ordered row-index slice, returning values aligned
// positionally with ordered.
func evalWindowFunc(ctx *sql.Context, t *sql.TableData, fn *expression.Window, ordered []int) ([]types.Value, error) {
	switch fn.Func {
	case "ROW_NUMBER":
		out := make([]types.Value, len(ordered))
		for i := range ordered {
			out[i] = types.NewInt64(int64(i + 1))
		}
		return out, nil
	case "RANK", "DENSE_RANK":
		return rankValues(ctx, t, fn, ordered, fn.Func == "DENSE_RANK")
	case "PERCENT_RANK":
		ranks, err := rankValues(ctx, t, fn, ordered, false)
		if err != nil {
			return nil, err
		}
		out := make([]types.Value, len(ordered))
		n := len(ordered)
		for i, r := range ranks {
			if n <= 1 {
				out[i] = types.NewFloat64(0)
				continue
			}
			out[i] = types.NewFloat64(float64(r.AsInt64()-1) / float64(n-1))
		}
		return out, nil
	case "CUME_DIST":
		ranks, err := rankValues(ctx, t, fn, ordered, false)
		if err != nil {
			return nil, err
		}
		counts := map[int64]int{}
		for _, r := range ranks {
			counts[r.AsInt64()]++
		}
		out := make([]types.Value, len(ordered))
		n := float64(len(ordered))
		for i, r := range ranks {
			le := 0
			for rv, c := range counts {
				if rv <= r.AsInt64() {
					le += c
				}
			}
			out[i] = types.NewFloat64(float64(le) / n)
		}
		return out, nil
	case "NTILE":
		buckets := int64(1)
		if len(fn.Args) > 0 {
			v, err := fn.Args[0].Eval(ctx, sql.Record{})
			if err == nil && !v.IsNull() {
				buckets = v.AsInt64()
			}
		}
		return ntileValues(len(ordered), buckets), nil
	case "LAG", "LEAD":
		return lagLeadValues(ctx, t, fn, ordered, fn.Func == "LEAD")
	case "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE":
		return navValues(ctx, t, fn, ordered)
	default:
		return aggregateWindowValues(ctx, t, fn, ordered)
	}
}

// rankValues computes SQL RANK/DENSE_RANK: ties (identical OrderBy keys)
// share the same rank, and RANK (unlike DENSE_RANK) skips ahead by the tie
// group's size.
func rankValues(ctx *sql.Context, t *sql.TableData, fn *expression.Window, ordered []int, dense bool) ([]types.Value, error) {
	out := make([]types.Value, len(ordered))
	var prevKey sql.Row
	rank := int64(0)
	denseRank := int64(0)
	for i, rowIdx := range ordered {
		key, err := evalSortKeyRow(ctx, t, fn.OrderBy, rowIdx)
		if err != nil {
			return nil, err
		}
		if i == 0 || !rowsEqual(prevKey, key) {
			rank = int64(i + 1)
			denseRank++
			prevKey = key
		}
		if dense {
			out[i] = types.NewInt64(denseRank)
		} else {
			out[i] = types.NewInt64(rank)
		}
	}
	return out, nil
}

func evalSortKeyRow(ctx *sql.Context, t *sql.TableData, orderBy []sql.SortField, rowIdx int) (sql.Row, error) {
	rec := t.Record(rowIdx)
	key := make(sql.Row, len(orderBy))
	for i, f := range orderBy {
		v, err := f.Expr.Eval(ctx, rec)
		if err != nil {
			return nil, err
		}
		key[i] = v
	}
	return key, nil
}

func ntileValues(n int, buckets int64) []types.Value {
	out := make([]types.Value, n)
	if buckets <= 0 {
		buckets = 1
	}
	base := int64(n) / buckets
	extra := int64(n) % buckets
	pos := 0
	for b := int64(0); b < buckets && pos < n; b++ {
		size := base
		if b < extra {
			size++
		}
		for i := int64(0); i < size && pos < n; i++ {
			out[pos] = types.NewInt64(b + 1)
			pos++
		}
	}
	return out
}

func lagLeadValues(ctx *sql.Context, t *sql.TableData, fn *expression.Window, ordered []int, lead bool) ([]types.Value, error) {
	offset := int64(1)
	if len(fn.Args) > 1 {
		v, err := fn.Args[1].Eval(ctx, sql.Record{})
		if err == nil && !v.IsNull() {
			offset = v.AsInt64()
		}
	}
	var dflt types.Value = types.Null
	if len(fn.Args) > 2 {
		v, err := fn.Args[2].Eval(ctx, t.Record(ordered[0]))
		if err == nil {
			dflt = v
		}
	}
	out := make([]types.Value, len(ordered))
	for i := range ordered {
		var src int
		if lead {
			src = i + int(offset)
		} else {
			src = i - int(offset)
		}
		if src < 0 || src >= len(ordered) {
			out[i] = dflt
			continue
		}
		v, err := fn.Args[0].Eval(ctx, t.Record(ordered[src]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func navValues(ctx *sql.Context, t *sql.TableData, fn *expression.Window, ordered []int) ([]types.Value, error) {
	frame := fn.Frame
	if !fn.HasFrame {
		frame = expression.UnboundedFrame()
	}
	out := make([]types.Value, len(ordered))
	for i := range ordered {
		lo, hi := frameBounds(frame, i, len(ordered))
		var srcIdx int
		switch fn.Func {
		case "FIRST_VALUE":
			srcIdx = lo
		case "LAST_VALUE":
			srcIdx = hi
		case "NTH_VALUE":
			n := int64(1)
			if len(fn.Args) > 1 {
				v, err := fn.Args[1].Eval(ctx, sql.Record{})
				if err == nil && !v.IsNull() {
					n = v.AsInt64()
				}
			}
			srcIdx = lo + int(n) - 1
		}
		if srcIdx < lo || srcIdx > hi || srcIdx < 0 || srcIdx >= len(ordered) {
			out[i] = types.Null
			continue
		}
		v, err := fn.Args[0].Eval(ctx, t.Record(ordered[srcIdx]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// aggregateWindowValues runs a standard accumulator (SUM, AVG, COUNT, MIN,
// MAX, ...) over each row's frame independently, per §4.5's ROWS/RANGE
// framing.
func aggregateWindowValues(ctx *sql.Context, t *sql.TableData, fn *expression.Window, ordered []int) ([]types.Value, error) {
	frame := fn.Frame
	if !fn.HasFrame {
		if len(fn.OrderBy) > 0 {
			frame = expression.DefaultFrame()
		} else {
			frame = expression.UnboundedFrame()
		}
	}
	out := make([]types.Value, len(ordered))
	for i := range ordered {
		lo, hi := frameBounds(frame, i, len(ordered))
		if frame.Mode == expression.FrameRange && frame.End.Kind == expression.BoundCurrentRow && len(fn.OrderBy) > 0 {
			// RANGE ... CURRENT ROW ends at the current row's last peer.
			cur, err := evalSortKeyRow(ctx, t, fn.OrderBy, ordered[i])
			if err != nil {
				return nil, err
			}
			for hi+1 < len(ordered) {
				next, err := evalSortKeyRow(ctx, t, fn.OrderBy, ordered[hi+1])
				if err != nil {
					return nil, err
				}
				if !rowsEqual(cur, next) {
					break
				}
				hi++
			}
		}
		acc, ok := aggregation.New(fn.Func, fn.Type(), fn.Type())
		if !ok {
			return nil, fmt.Errorf("rowexec: unsupported window function %s", fn.Func)
		}
		acc.Start()
		for k := lo; k <= hi; k++ {
			if k < 0 || k >= len(ordered) {
				continue
			}
			v, err := fn.Args[0].Eval(ctx, t.Record(ordered[k]))
			if err != nil {
				return nil, err
			}
			if err := acc.Update(v); err != nil {
				return nil, err
			}
		}
		v, err := acc.Finalize()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// frameBounds resolves a WindowFrame's bounds to absolute [lo, hi] row
// positions within the ordered partition, clamped to its extent, counting
// rows whatever the frame's Mode. aggregateWindowValues additionally widens
// a RANGE frame ending at CURRENT ROW to the current row's last peer; every
// other RANGE bound (N PRECEDING/FOLLOWING, a CURRENT ROW start, and the
// frames of navigation functions) is resolved as ROWS.
func frameBounds(f expression.WindowFrame, pos, n int) (int, int) {
	lo := resolveBound(f.Start, pos, n, true)
	hi := resolveBound(f.End, pos, n, false)
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	return lo, hi
}

func resolveBound(b expression.FrameBound, pos, n int, isStart bool) int {
	switch b.Kind {
	case expression.BoundUnboundedPreceding:
		return 0
	case expression.BoundUnboundedFollowing:
		return n - 1
	case expression.BoundCurrentRow:
		return pos
	case expression.BoundPreceding:
		return pos - int(b.Offset)
	case expression.BoundFollowing:
		return pos + int(b.Offset)
	}
	if isStart {
		return 0
	}
	return n - 1
}
