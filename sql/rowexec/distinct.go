package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/hash"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execDistinct deduplicates whole rows with a hash-then-compare strategy
// (§4.5 Distinct policy): hash.OfRow narrows candidates into a bucket, an
// exact Row comparison within the bucket confirms an actual duplicate
// before a row is dropped, so hash collisions never silently merge distinct
// rows.
func execDistinct(ctx *sql.Context, d *plan.Distinct) (*sql.TableData, error) {
	child, err := Exec(ctx, d.Child)
	if err != nil {
		return nil, err
	}
	seen := map[uint64][]int{}
	positions := make([]int, 0, child.RowCount())
	for i := 0; i < child.RowCount(); i++ {
		row := child.Row(i)
		h := hash.OfRow(row)
		dup := false
		for _, j := range seen[h] {
			if rowsEqual(row, child.Row(j)) {
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
	return child.Take(positions), nil
}

func rowsEqual(a, b sql.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !types.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
