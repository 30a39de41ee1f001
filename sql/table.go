package sql

import (
	"github.com/tidesql/tidesql/sql/types"
)

// TableData is the columnar result of executing a plan: one Column per
// field plus a shared row count (§3 "A Table owns one Column per field plus
// a shared row count; every column length equals the row count").
type TableData struct {
	schema Schema
	cols   []*types.Column
	rows   int
}

// NewTableData builds a TableData from already-materialized columns; every
// column must have the same length, which becomes the row count.
func NewTableData(schema Schema, cols []*types.Column) *TableData {
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	return &TableData{schema: schema, cols: cols, rows: rows}
}

// EmptyTableData builds a zero-row table with the given schema, used for
// LIMIT 0, empty-propagation, and DDL/DML "effect, empty result" returns.
func EmptyTableData(schema Schema) *TableData {
	cols := make([]*types.Column, len(schema))
	for i, f := range schema {
		cols[i] = types.NewColumn(f.Type)
	}
	return &TableData{schema: schema, cols: cols, rows: 0}
}

func (t *TableData) Schema() Schema         { return t.schema }
func (t *TableData) RowCount() int          { return t.rows }
func (t *TableData) Column(i int) *types.Column { return t.cols[i] }
func (t *TableData) NumColumns() int        { return len(t.cols) }

func (t *TableData) Record(i int) Record { return Record{table: t, idx: i} }

// Row materializes row i.
func (t *TableData) Row(i int) Row { return t.Record(i).Materialize() }

// ToRecords materializes every row.
func (t *TableData) ToRecords() []Row {
	out := make([]Row, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// AppendRow appends one Row's worth of values; used by Insert and the
// generic physical operators that build output row-at-a-time.
func (t *TableData) AppendRow(row Row) error {
	for i, v := range row {
		if err := t.cols[i].Push(v); err != nil {
			return err
		}
	}
	t.rows++
	return nil
}

// Take gathers rows at the given indices into a new TableData, used by Sort,
// TopN, Limit/Offset, and set operators.
func (t *TableData) Take(indices []int) *TableData {
	cols := make([]*types.Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(indices)
	}
	return NewTableData(t.schema, cols)
}

// Concat stacks tables with identical schemas row-wise (UNION branches and
// recursive CTE rounds).
func Concat(tables ...*TableData) *TableData {
	if len(tables) == 0 {
		return EmptyTableData(nil)
	}
	schema := tables[0].schema
	total := 0
	for _, t := range tables {
		total += t.rows
	}
	cols := make([]*types.Column, len(schema))
	for i := range schema {
		cols[i] = types.NewColumn(schema[i].Type)
	}
	out := NewTableData(schema, cols)
	for _, t := range tables {
		for r := 0; r < t.rows; r++ {
			_ = out.AppendRow(t.Row(r))
		}
	}
	return out
}

// Clone deep-copies the table, giving the caller a snapshot independent of
// further mutation of the source (§5 copy-on-write semantics).
func (t *TableData) Clone() *TableData {
	cols := make([]*types.Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Clone()
	}
	return &TableData{schema: t.schema, cols: cols, rows: t.rows}
}
