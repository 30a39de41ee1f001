package sql

import "github.com/tidesql/tidesql/sql/types"

// Row is a materialized single row: one Value per schema field. Row-at-a-time
// evaluation, ToRecords, and DML all traffic in Rows.
type Row []types.Value

func NewRow(vals ...types.Value) Row { return Row(vals) }

func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Record is an immutable, non-copying view of one row of a TableData,
// matching §4.2's "reads an immutable Record (a borrowed view of one row
// slice across columns)". Evaluating a row-at-a-time expression against a
// Record never materializes the row unless the expression needs it.
type Record struct {
	table *TableData
	idx   int
}

func (r Record) Get(i int) types.Value { return r.table.cols[i].Get(r.idx) }
func (r Record) Len() int              { return len(r.table.cols) }
func (r Record) Schema() Schema        { return r.table.schema }
func (r Record) Index() int            { return r.idx }

// Materialize copies the record into a standalone Row.
func (r Record) Materialize() Row {
	out := make(Row, r.Len())
	for i := range out {
		out[i] = r.Get(i)
	}
	return out
}
