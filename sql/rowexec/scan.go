package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execTableScan honors a projection hint by narrowing the snapshot's
// columns before returning it, avoiding materializing columns the rest of
// the plan never reads (§4.5 TableScan policy).
func execTableScan(ctx *sql.Context, t *plan.TableScan) (*sql.TableData, error) {
	snap := t.Table.Snapshot()
	if t.Projection == nil {
		return snap, nil
	}
	schema := t.Schema()
	cols := make([]*types.Column, len(t.Projection))
	for i, p := range t.Projection {
		cols[i] = snap.Column(p)
	}
	return sql.NewTableData(schema, cols), nil
}

func execValues(ctx *sql.Context, v *plan.Values) (*sql.TableData, error) {
	out := sql.EmptyTableData(v.Schema())
	for _, row := range v.Rows {
		vals := make(sql.Row, len(row))
		for i, e := range row {
			val, err := e.Eval(ctx, sql.Record{})
			if err != nil {
				return nil, err
			}
			vals[i] = val
		}
		if err := out.AppendRow(vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
