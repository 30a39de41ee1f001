package rowexec

import (
	"container/heap"
	"sort"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execSort implements §4.5's stable Sort: key columns are evaluated once,
// then row positions are stably sorted by repeated Compare over the key
// tuple.
func execSort(ctx *sql.Context, s *plan.Sort) (*sql.TableData, error) {
	child, err := Exec(ctx, s.Child)
	if err != nil {
		return nil, err
	}
	keys, err := evalSortKeys(ctx, s.Keys, child)
	if err != nil {
		return nil, err
	}
	positions := identityPositions(child.RowCount())
	sort.SliceStable(positions, func(i, j int) bool {
		return lessByKeys(keys, s.Keys, positions[i], positions[j])
	})
	return child.Take(positions), nil
}

// execTopN implements §4.5's bounded-heap TopN: a max-heap (for ascending
// order; inverted for descending) of size N is maintained while scanning
// rows once, avoiding a full O(n log n) sort when N << row count.
func execTopN(ctx *sql.Context, t *plan.TopN) (*sql.TableData, error) {
	child, err := Exec(ctx, t.Child)
	if err != nil {
		return nil, err
	}
	if t.N <= 0 {
		return sql.EmptyTableData(child.Schema()), nil
	}
	keys, err := evalSortKeys(ctx, t.Keys, child)
	if err != nil {
		return nil, err
	}
	h := &topNHeap{keys: keys, fields: t.Keys}
	for i := 0; i < child.RowCount(); i++ {
		if h.Len() < t.N {
			heap.Push(h, i)
			continue
		}
		// lessByKeys(..., i, root) compares i against the heap root (the
		// current worst-of-the-best row); if i is better, it displaces the root.
		if lessByKeys(keys, t.Keys, i, h.rows[0]) {
			h.rows[0] = i
			heap.Fix(h, 0)
		}
	}
	positions := append([]int{}, h.rows...)
	sort.SliceStable(positions, func(i, j int) bool {
		return lessByKeys(keys, t.Keys, positions[i], positions[j])
	})
	return child.Take(positions), nil
}

// execLimit slices [Offset, Offset+N) out of Child's rows, producing Empty
// once Offset reaches or exceeds the row count.
func execLimit(ctx *sql.Context, l *plan.Limit) (*sql.TableData, error) {
	child, err := Exec(ctx, l.Child)
	if err != nil {
		return nil, err
	}
	lo := int(l.Offset)
	if lo > child.RowCount() {
		lo = child.RowCount()
	}
	hi := child.RowCount()
	if l.N >= 0 && lo+int(l.N) < hi {
		hi = lo + int(l.N)
	}
	positions := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		positions = append(positions, i)
	}
	return child.Take(positions), nil
}

func identityPositions(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func evalSortKeys(ctx *sql.Context, fields []sql.SortField, t *sql.TableData) ([]*types.Column, error) {
	out := make([]*types.Column, len(fields))
	for i, f := range fields {
		col, err := sql.EvalColumnar(ctx, f.Expr, t)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

func lessByKeys(keys []*types.Column, fields []sql.SortField, i, j int) bool {
	for k, col := range keys {
		nulls := types.NullsLast
		if fields[k].NullsFirst {
			nulls = types.NullsFirst
		}
		c := types.Compare(col.Get(i), col.Get(j), nulls)
		if fields[k].Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
	}
	return false
}

// topNHeap is a max-heap over row positions ordered by "worse than the
// current top N" first, so the root is always the weakest member currently
// retained and is the one compared/evicted against each new candidate.
type topNHeap struct {
	rows   []int
	keys   []*types.Column
	fields []sql.SortField
}

func (h *topNHeap) Len() int { return len(h.rows) }
func (h *topNHeap) Less(i, j int) bool {
	// Inverted: the heap root should be the row that sorts last among kept
	// rows, so a strictly-better incoming candidate can evict it.
	return lessByKeys(h.keys, h.fields, h.rows[j], h.rows[i])
}
func (h *topNHeap) Swap(i, j int)      { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *topNHeap) Push(x interface{}) { h.rows = append(h.rows, x.(int)) }
func (h *topNHeap) Pop() interface{} {
	old := h.rows
	n := len(old)
	v := old[n-1]
	h.rows = old[:n-1]
	return v
}
