package rowexec

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execInsert evaluates Source and appends its rows to Table under the
// table's own write lock (§3 "Insert", §4.5, §5 "writers on distinct tables
// do not block each other").
func execInsert(ctx *sql.Context, ins *plan.Insert) (*sql.TableData, error) {
	src, err := Exec(ctx, ins.Source)
	if err != nil {
		return nil, err
	}
	rows := src.ToRecords()
	if err := ins.Table.Table.Insert(ctx, rows); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

// execUpdate rewrites the Sets columns of every row Child selects (Child
// already embeds the WHERE filter), then replaces Table's contents
// atomically (§3 "Update", §4.5).
func execUpdate(ctx *sql.Context, u *plan.Update) (*sql.TableData, error) {
	snap := u.Table.Table.Snapshot()
	matched, err := Exec(ctx, u.Child)
	if err != nil {
		return nil, err
	}
	out := sql.EmptyTableData(snap.Schema())
	for i := 0; i < snap.RowCount(); i++ {
		row := snap.Row(i)
		if idx, ok := findRow(matched, row); ok {
			rec := matched.Record(idx)
			newRow := append(sql.Row{}, row...)
			for _, s := range u.Sets {
				v, err := s.Expr.Eval(ctx, rec)
				if err != nil {
					return nil, err
				}
				newRow[s.ColumnIndex] = v
			}
			row = newRow
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := u.Table.Table.Replace(ctx, out); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

// execDelete replaces Table with its snapshot minus every row Child selects
// (§3 "Delete", §4.5).
func execDelete(ctx *sql.Context, d *plan.Delete) (*sql.TableData, error) {
	snap := d.Table.Table.Snapshot()
	matched, err := Exec(ctx, d.Child)
	if err != nil {
		return nil, err
	}
	out := sql.EmptyTableData(snap.Schema())
	for i := 0; i < snap.RowCount(); i++ {
		row := snap.Row(i)
		if _, ok := findRow(matched, row); ok {
			continue
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := d.Table.Table.Replace(ctx, out); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

// execMerge evaluates each Source row against On to find its Table match
// (or lack of one) and applies the first matching WHEN clause, per
// BigQuery's MERGE semantics (§3 "Merge", §4.5). Unmatched target rows
// without a "WHEN NOT MATCHED BY SOURCE" clause pass through unchanged.
func execMerge(ctx *sql.Context, m *plan.Merge) (*sql.TableData, error) {
	target := m.Table.Table.Snapshot()
	source, err := Exec(ctx, m.Source)
	if err != nil {
		return nil, err
	}
	targetWidth := len(target.Schema())
	sourceMatchedTarget := make([]bool, target.RowCount())
	sourceMatched := make([]bool, source.RowCount())

	pairs := make([][2]int, 0)
	for si := 0; si < source.RowCount(); si++ {
		for ti := 0; ti < target.RowCount(); ti++ {
			ok, err := evalBool(ctx, m.On, combinedRecord(target, source, ti, si))
			if err != nil {
				return nil, err
			}
			if ok {
				pairs = append(pairs, [2]int{ti, si})
				sourceMatchedTarget[ti] = true
				sourceMatched[si] = true
			}
		}
	}

	result := sql.EmptyTableData(target.Schema())
	handled := make([]bool, target.RowCount())
	newRows := make([]sql.Row, 0)

	for _, p := range pairs {
		ti, si := p[0], p[1]
		rec := combinedRecord(target, source, ti, si)
		action, ok := matchingAction(m.Actions, ctx, rec, true, false)
		if !ok {
			if err := result.AppendRow(target.Row(ti)); err != nil {
				return nil, err
			}
			handled[ti] = true
			continue
		}
		handled[ti] = true
		if action.IsDelete {
			continue
		}
		row := append(sql.Row{}, target.Row(ti)...)
		for _, s := range action.Sets {
			v, err := s.Expr.Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			row[s.ColumnIndex] = v
		}
		if err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}
	for ti := 0; ti < target.RowCount(); ti++ {
		if handled[ti] {
			continue
		}
		if sourceMatchedTarget[ti] {
			continue
		}
		rec := target.Record(ti)
		action, ok := matchingAction(m.Actions, ctx, rec, false, true)
		if !ok {
			if err := result.AppendRow(target.Row(ti)); err != nil {
				return nil, err
			}
			continue
		}
		if action.IsDelete {
			continue
		}
		row := append(sql.Row{}, target.Row(ti)...)
		for _, s := range action.Sets {
			v, err := s.Expr.Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			row[s.ColumnIndex] = v
		}
		if err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}
	for si := 0; si < source.RowCount(); si++ {
		if sourceMatched[si] {
			continue
		}
		rec := source.Record(si)
		action, ok := matchingAction(m.Actions, ctx, rec, false, false)
		if !ok || !action.IsInsert {
			continue
		}
		row := make(sql.Row, targetWidth)
		for i := range row {
			row[i] = types.Null
		}
		for i, col := range action.InsertCols {
			v, err := action.InsertExprs[i].Eval(ctx, rec)
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		newRows = append(newRows, row)
	}
	for _, row := range newRows {
		if err := result.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := m.Table.Table.Replace(ctx, result); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

func matchingAction(actions []plan.MergeAction, ctx *sql.Context, rec sql.Record, matched, bySource bool) (plan.MergeAction, bool) {
	for _, a := range actions {
		if a.Matched != matched {
			continue
		}
		if !matched && a.ByTargetNot != bySource {
			continue
		}
		if a.Condition != nil {
			ok, err := evalBool(ctx, a.Condition, rec)
			if err != nil || !ok {
				continue
			}
		}
		return a, true
	}
	return plan.MergeAction{}, false
}

func findRow(t *sql.TableData, row sql.Row) (int, bool) {
	for i := 0; i < t.RowCount(); i++ {
		if rowsEqual(t.Row(i), row) {
			return i, true
		}
	}
	return -1, false
}
