package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/hash"
	"github.com/tidesql/tidesql/sql/plan"
)

// execUnion implements UNION [ALL]: ALL is a straight concatenation of every
// branch's rows; DISTINCT (the default) additionally deduplicates the
// combined result by whole-row equality (§4.5 setop policy).
func execUnion(ctx *sql.Context, u *plan.Union) (*sql.TableData, error) {
	combined, err := execBranches(ctx, u.Branches)
	if err != nil {
		return nil, err
	}
	if u.All {
		return combined, nil
	}
	return dedupTable(combined)
}

// execIntersect keeps rows present in every branch. ALL preserves
// multiplicity as min(count_i) across branches; DISTINCT collapses each
// branch to a set before intersecting.
func execIntersect(ctx *sql.Context, ix *plan.Intersect) (*sql.TableData, error) {
	if len(ix.Branches) == 0 {
		return sql.EmptyTableData(ix.Schema()), nil
	}
	branchCounts, err := rowCountsPerBranch(ctx, ix.Branches, ix.All)
	if err != nil {
		return nil, err
	}
	result := branchCounts[0]
	for _, next := range branchCounts[1:] {
		merged := map[uint64][]rowCount{}
		for h, entries := range result {
			for _, e := range entries {
				n := countMatching(next[h], e.row)
				if n == 0 {
					continue
				}
				min := e.count
				if n < min {
					min = n
				}
				merged[h] = append(merged[h], rowCount{row: e.row, count: min})
			}
		}
		result = merged
	}
	return materializeRowCounts(ix.Schema(), result, ix.All)
}

// execExcept keeps rows from the first branch not present in any later
// branch. ALL subtracts multiplicities (count - sum of later counts,
// floored at 0); DISTINCT operates on sets.
func execExcept(ctx *sql.Context, ex *plan.Except) (*sql.TableData, error) {
	if len(ex.Branches) == 0 {
		return sql.EmptyTableData(ex.Schema()), nil
	}
	branchCounts, err := rowCountsPerBranch(ctx, ex.Branches, ex.All)
	if err != nil {
		return nil, err
	}
	result := branchCounts[0]
	for _, next := range branchCounts[1:] {
		remaining := map[uint64][]rowCount{}
		for h, entries := range result {
			for _, e := range entries {
				sub := countMatching(next[h], e.row)
				left := e.count - sub
				if ex.All {
					if left <= 0 {
						continue
					}
					remaining[h] = append(remaining[h], rowCount{row: e.row, count: left})
				} else if sub == 0 {
					remaining[h] = append(remaining[h], e)
				}
			}
		}
		result = remaining
	}
	return materializeRowCounts(ex.Schema(), result, ex.All)
}

func execBranches(ctx *sql.Context, branches []sql.Node) (*sql.TableData, error) {
	if len(branches) == 0 {
		return sql.EmptyTableData(nil), nil
	}
	tables := make([]*sql.TableData, len(branches))
	for i, b := range branches {
		t, err := Exec(ctx, b)
		if err != nil {
			return nil, err
		}
		tables[i] = t
	}
	return sql.Concat(tables...), nil
}

func dedupTable(t *sql.TableData) (*sql.TableData, error) {
	seen := map[uint64][]int{}
	positions := make([]int, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		row := t.Row(i)
		h := hash.OfRow(row)
		dup := false
		for _, j := range seen[h] {
			if rowsEqual(row, t.Row(j)) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], i)
		positions = append(positions, i)
	}
	return t.Take(positions), nil
}

type rowCount struct {
	row   sql.Row
	count int
}

// rowCountsPerBranch executes every branch and tallies each distinct row's
// multiplicity; when all is false (a DISTINCT setop) it collapses every
// count to 1 before returning.
func rowCountsPerBranch(ctx *sql.Context, branches []sql.Node, all bool) ([]map[uint64][]rowCount, error) {
	out := make([]map[uint64][]rowCount, len(branches))
	for bi, b := range branches {
		t, err := Exec(ctx, b)
		if err != nil {
			return nil, err
		}
		counts := map[uint64][]rowCount{}
		for i := 0; i < t.RowCount(); i++ {
			row := t.Row(i)
			h := hash.OfRow(row)
			found := false
			for j, e := range counts[h] {
				if rowsEqual(e.row, row) {
					counts[h][j].count++
					found = true
					break
				}
			}
			if !found {
				counts[h] = append(counts[h], rowCount{row: row, count: 1})
			}
		}
		if !all {
			for h, entries := range counts {
				for i := range entries {
					entries[i].count = 1
				}
				counts[h] = entries
			}
		}
		out[bi] = counts
	}
	return out, nil
}

func countMatching(entries []rowCount, row sql.Row) int {
	for _, e := range entries {
		if rowsEqual(e.row, row) {
			return e.count
		}
	}
	return 0
}

func materializeRowCounts(schema sql.Schema, counts map[uint64][]rowCount, all bool) (*sql.TableData, error) {
	out := sql.EmptyTableData(schema)
	for _, entries := range counts {
		for _, e := range entries {
			n := e.count
			if !all {
				n = 1
			}
			for i := 0; i < n; i++ {
				if err := out.AppendRow(e.row); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}
