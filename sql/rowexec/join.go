package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/hash"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execHashJoin implements §4.5's HashJoin policy: a hash table is built
// once over the right side's key tuples, then probed once per left row.
// NULL keys never match (three-valued equality), matching standard JOIN ...
// ON semantics rather than the NULL-collapsing behavior Distinct/GROUP BY
// use.
func execHashJoin(ctx *sql.Context, j *plan.HashJoin) (*sql.TableData, error) {
	left, err := Exec(ctx, j.Left)
	if err != nil {
		return nil, err
	}
	right, err := Exec(ctx, j.Right)
	if err != nil {
		return nil, err
	}
	buckets, rightKeys, err := buildHashTable(ctx, right, j.RightKeys)
	if err != nil {
		return nil, err
	}
	leftKeys, err := evalKeyColumns(ctx, left, j.LeftKeys)
	if err != nil {
		return nil, err
	}
	rightMatched := make([]bool, right.RowCount())
	var pairs [][2]int
	leftMatchedAny := make([]bool, left.RowCount())
	for li := 0; li < left.RowCount(); li++ {
		key := rowKeyAt(leftKeys, li)
		if key == nil {
			continue
		}
		for _, ri := range buckets[hash.OfRow(key)] {
			if !keysEqual(key, rowKeyAt(rightKeys, ri)) {
				continue
			}
			pairs = append(pairs, [2]int{li, ri})
			leftMatchedAny[li] = true
			rightMatched[ri] = true
		}
	}
	return assembleJoinOutput(j.Type, j.Schema(), left, right, pairs, leftMatchedAny, rightMatched)
}

// execNestedLoopJoin evaluates Condition for every (left, right) pair;
// used for non-equi predicates the cross->hash pass can't extract keys
// from (§4.5).
func execNestedLoopJoin(ctx *sql.Context, j *plan.NestedLoopJoin) (*sql.TableData, error) {
	left, err := Exec(ctx, j.Left)
	if err != nil {
		return nil, err
	}
	right, err := Exec(ctx, j.Right)
	if err != nil {
		return nil, err
	}
	var pairs [][2]int
	leftMatchedAny := make([]bool, left.RowCount())
	rightMatched := make([]bool, right.RowCount())
	for li := 0; li < left.RowCount(); li++ {
		for ri := 0; ri < right.RowCount(); ri++ {
			if j.Condition != nil {
				ok, err := evalBool(ctx, j.Condition, combinedRecord(left, right, li, ri))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			pairs = append(pairs, [2]int{li, ri})
			leftMatchedAny[li] = true
			rightMatched[ri] = true
		}
	}
	return assembleJoinOutput(j.Type, j.Schema(), left, right, pairs, leftMatchedAny, rightMatched)
}

// execCrossJoin is the full cartesian product, never filtered (§3).
func execCrossJoin(ctx *sql.Context, j *plan.CrossJoin) (*sql.TableData, error) {
	left, err := Exec(ctx, j.Left)
	if err != nil {
		return nil, err
	}
	right, err := Exec(ctx, j.Right)
	if err != nil {
		return nil, err
	}
	out := sql.EmptyTableData(j.Schema())
	for li := 0; li < left.RowCount(); li++ {
		lrow := left.Row(li)
		for ri := 0; ri < right.RowCount(); ri++ {
			row := append(append(sql.Row{}, lrow...), right.Row(ri)...)
			if err := out.AppendRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func buildHashTable(ctx *sql.Context, t *sql.TableData, keys []sql.Expression) (map[uint64][]int, []sql.Row, error) {
	cols, err := evalKeyColumns(ctx, t, keys)
	if err != nil {
		return nil, nil, err
	}
	buckets := map[uint64][]int{}
	for i := 0; i < t.RowCount(); i++ {
		k := rowKeyAt(cols, i)
		if k == nil {
			continue
		}
		h := hash.OfRow(k)
		buckets[h] = append(buckets[h], i)
	}
	return buckets, cols, nil
}

// evalKeyColumns evaluates every key expression against t row-at-a-time,
// returning one materialized key tuple (sql.Row) per input row so the
// tuple can be fed to hash.OfRow and compared positionally.
func evalKeyColumns(ctx *sql.Context, t *sql.TableData, keys []sql.Expression) ([]sql.Row, error) {
	out := make([]sql.Row, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		rec := t.Record(i)
		row := make(sql.Row, len(keys))
		for k, e := range keys {
			v, err := e.Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			row[k] = v
		}
		out[i] = row
	}
	return out, nil
}

// rowKeyAt returns rows[i], or nil if any component is NULL (a NULL join
// key can never match).
func rowKeyAt(rows []sql.Row, i int) sql.Row {
	row := rows[i]
	for _, v := range row {
		if v.IsNull() {
			return nil
		}
	}
	return row
}

func keysEqual(a, b sql.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if types.Compare(a[i], b[i], types.NullsLast) != 0 {
			return false
		}
	}
	return true
}

// combinedRecord materializes a single (left[li], right[ri]) pair as one
// Record so NestedLoopJoin's Condition can be evaluated against it with
// ordinary GetField indices spanning both sides.
func combinedRecord(left, right *sql.TableData, li, ri int) sql.Record {
	row := append(append(sql.Row{}, left.Row(li)...), right.Row(ri)...)
	tmp := sql.EmptyTableData(left.Schema().Concat(right.Schema()))
	_ = tmp.AppendRow(row)
	return tmp.Record(0)
}

// assembleJoinOutput materializes the join's output rows from the matched
// (li, ri) pairs plus, for outer variants, the unmatched side(s) padded
// with NULLs (§4.5 "outer-join null-fill"). Column order follows
// HashJoin/NestedLoopJoin.Schema(): RIGHT flips to (right, left); every
// other variant is (left, right).
func assembleJoinOutput(jt plan.JoinType, schema sql.Schema, left, right *sql.TableData, pairs [][2]int, leftMatched, rightMatched []bool) (*sql.TableData, error) {
	out := sql.EmptyTableData(schema)
	leftWidth := len(left.Schema())
	rightWidth := len(right.Schema())
	emit := func(li, ri int) error {
		var row sql.Row
		switch {
		case li >= 0 && ri >= 0:
			if jt == plan.JoinRight {
				row = append(append(sql.Row{}, right.Row(ri)...), left.Row(li)...)
			} else {
				row = append(append(sql.Row{}, left.Row(li)...), right.Row(ri)...)
			}
		case li >= 0:
			nulls := make(sql.Row, rightWidth)
			for i := range nulls {
				nulls[i] = types.Null
			}
			if jt == plan.JoinRight {
				row = append(append(sql.Row{}, nulls...), left.Row(li)...)
			} else {
				row = append(append(sql.Row{}, left.Row(li)...), nulls...)
			}
		default:
			nulls := make(sql.Row, leftWidth)
			for i := range nulls {
				nulls[i] = types.Null
			}
			if jt == plan.JoinRight {
				row = append(append(sql.Row{}, right.Row(ri)...), nulls...)
			} else {
				row = append(append(sql.Row{}, nulls...), right.Row(ri)...)
			}
		}
		return out.AppendRow(row)
	}
	for _, p := range pairs {
		if err := emit(p[0], p[1]); err != nil {
			return nil, err
		}
	}
	if jt == plan.JoinLeft || jt == plan.JoinFull {
		for li, matched := range leftMatched {
			if !matched {
				if err := emit(li, -1); err != nil {
					return nil, err
				}
			}
		}
	}
	if jt == plan.JoinRight || jt == plan.JoinFull {
		for ri, matched := range rightMatched {
			if !matched {
				if err := emit(-1, ri); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}
