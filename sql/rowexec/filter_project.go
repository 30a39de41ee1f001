package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execFilter evaluates Predicate columnar-first, falling back to
// row-at-a-time only when the expression tree can't vectorize (§4.2, §4.5
// Filter policy), then gathers the surviving row positions in one Take.
func execFilter(ctx *sql.Context, f *plan.Filter) (*sql.TableData, error) {
	child, err := Exec(ctx, f.Child)
	if err != nil {
		return nil, err
	}
	mask, err := sql.EvalColumnar(ctx, f.Predicate, child)
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

// execProject evaluates every projection column against the child table,
// preferring the columnar path per expression (§4.5 Project policy).
func execProject(ctx *sql.Context, p *plan.Project) (*sql.TableData, error) {
	child, err := Exec(ctx, p.Child)
	if err != nil {
		return nil, err
	}
	schema := p.Schema()
	cols := make([]*types.Column, len(p.Columns))
	for i, c := range p.Columns {
		col, err := sql.EvalColumnar(ctx, c.Expr, child)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return sql.NewTableData(schema, cols), nil
}
