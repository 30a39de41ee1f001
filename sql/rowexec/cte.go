package rowexec

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
)

// execWithCte materializes every non-recursive CTE once; a `WITH RECURSIVE`
// binding (Plan is Union/UnionAll of an anchor branch plus a branch
// referencing itself through CteRef) is re-evaluated round by round, each
// round's CteRef resolving to the previous round's working set, until a
// round adds no new rows or MaxRecursionDepth is hit (§4.5 "CTE/Recursive
// CTE").
func execWithCte(ctx *sql.Context, w *plan.WithCte) (*sql.TableData, error) {
	ctes := map[string]*sql.TableData{}
	for k, v := range ctx.Ctes {
		ctes[k] = v
	}
	for _, def := range w.Ctes {
		scoped := ctx.WithCtes(ctes)
		var materialized *sql.TableData
		var err error
		if def.Recursive {
			materialized, err = execRecursiveCte(scoped, def)
		} else {
			materialized, err = Exec(scoped, def.Plan)
		}
		if err != nil {
			return nil, err
		}
		ctes[def.Name] = materialized
	}
	return Exec(ctx.WithCtes(ctes), w.Query)
}

// execCteRef resolves Name against the Ctes map bound by the enclosing
// WithCte (or, mid-iteration, the recursive round in progress).
func execCteRef(ctx *sql.Context, r *plan.CteRef) (*sql.TableData, error) {
	t, ok := ctx.Ctes[r.Name]
	if !ok {
		return nil, fmt.Errorf("rowexec: CTE %q not in scope", r.Name)
	}
	return t, nil
}

// execRecursiveCte evaluates a WITH RECURSIVE binding whose Plan is
// Union[All](anchor, recursive). The anchor runs once; the recursive branch
// re-runs each round with CteRef bound to the previous round's new rows,
// and rounds accumulate until one contributes no new rows.
func execRecursiveCte(ctx *sql.Context, def plan.CteDef) (*sql.TableData, error) {
	union, ok := def.Plan.(*plan.Union)
	if !ok || len(union.Branches) < 2 {
		return Exec(ctx, def.Plan)
	}
	anchor, err := Exec(ctx, union.Branches[0])
	if err != nil {
		return nil, err
	}
	accumulated := anchor
	working := anchor
	for round := 0; round < ctx.Session.MaxRecursionDepth; round++ {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		if working.RowCount() == 0 {
			break
		}
		roundCtx := ctx.WithCtes(mapWith(ctx.Ctes, def.Name, working))
		var next *sql.TableData
		for _, b := range union.Branches[1:] {
			part, err := Exec(roundCtx, b)
			if err != nil {
				return nil, err
			}
			if next == nil {
				next = part
			} else {
				next = sql.Concat(next, part)
			}
		}
		if next == nil || next.RowCount() == 0 {
			break
		}
		if !union.All {
			next, err = dedupAgainst(next, accumulated)
			if err != nil {
				return nil, err
			}
			if next.RowCount() == 0 {
				break
			}
		}
		accumulated = sql.Concat(accumulated, next)
		working = next
	}
	if !union.All {
		return dedupTable(accumulated)
	}
	return accumulated, nil
}

func mapWith(base map[string]*sql.TableData, name string, t *sql.TableData) map[string]*sql.TableData {
	out := map[string]*sql.TableData{name: t}
	for k, v := range base {
		if k != name {
			out[k] = v
		}
	}
	return out
}

// dedupAgainst drops rows of next that already appear in seen, so a
// recursive CTE's UNION (not UNION ALL) branch terminates once it stops
// discovering genuinely new rows.
func dedupAgainst(next, seen *sql.TableData) (*sql.TableData, error) {
	positions := make([]int, 0, next.RowCount())
	for i := 0; i < next.RowCount(); i++ {
		row := next.Row(i)
		dup := false
		for j := 0; j < seen.RowCount(); j++ {
			if rowsEqual(row, seen.Row(j)) {
				dup = true
				break
			}
		}
		if !dup {
			positions = append(positions, i)
		}
	}
	return next.Take(positions), nil
}
