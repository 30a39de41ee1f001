package rowexec

import (
	"math/rand"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execQualify is a post-window Filter: identical row-selection logic, kept
// as its own operator to match the plan's Window -> Qualify separation
// (§3 "Qualify", §4.5).
func execQualify(ctx *sql.Context, q *plan.Qualify) (*sql.TableData, error) {
	child, err := Exec(ctx, q.Child)
	if err != nil {
		return nil, err
	}
	mask, err := sql.EvalColumnar(ctx, q.Predicate, child)
	if err != nil {
		return nil, err
	}
	positions := make([]int, 0, child.RowCount())
	for i := 0; i < child.RowCount(); i++ {
		v := mask.Get(i)
		if !v.IsNull() && v.AsBool() {
			positions = append(positions, i)
		}
	}
	return child.Take(positions), nil
}

// execSample implements TABLESAMPLE SYSTEM by an independent per-row coin
// flip at the given percentage; §1 calls out that no reproducible-seed
// guarantee is required.
func execSample(ctx *sql.Context, s *plan.Sample) (*sql.TableData, error) {
	child, err := Exec(ctx, s.Child)
	if err != nil {
		return nil, err
	}
	positions := make([]int, 0, child.RowCount())
	for i := 0; i < child.RowCount(); i++ {
		if rand.Float64()*100 < s.Percent {
			positions = append(positions, i)
		}
	}
	return child.Take(positions), nil
}

// execUnnest expands Expr (an ARRAY-valued expression evaluated per input
// row) into one output row per element, carrying the input row's other
// columns along and optionally emitting a 0-based OFFSET column (§3
// "Unnest", §4.5).
func execUnnest(ctx *sql.Context, u *plan.Unnest) (*sql.TableData, error) {
	child, err := Exec(ctx, u.Child)
	if err != nil {
		return nil, err
	}
	out := sql.EmptyTableData(u.Schema())
	inWidth := len(child.Schema())
	for i := 0; i < child.RowCount(); i++ {
		rec := child.Record(i)
		arrVal, err := u.Expr.Eval(ctx, rec)
		if err != nil {
			return nil, err
		}
		base := rec.Materialize()
		if arrVal.IsNull() {
			continue
		}
		elems := arrVal.AsArray()
		for offset, elem := range elems {
			row := make(sql.Row, inWidth, inWidth+2)
			copy(row, base)
			row = append(row, elem)
			if u.WithOffset {
				row = append(row, types.NewInt64(int64(offset)))
			}
			if err := out.AppendRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
