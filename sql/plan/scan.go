// Package plan implements the concrete plan node kinds of §3 "Plan", shared
// by the logical and physical stages (the physical executor attaches no
// extra node types of its own — only execution hints via context/session —
// so one package covers both, as the teacher's sql/plan does for its own
// row-oriented engine).
package plan

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
)

// TableScan reads a catalog table, optionally narrowed to a projection set
// by the projection-pushdown pass (§4.4, §4.5 TableScan policy).
type TableScan struct {
	DatabaseName string
	TableName    string
	Table        sql.StoredTable // nil until resolved
	schema       sql.Schema
	// Projection, when non-nil, is the set of column positions (into the
	// table's full schema) the scan should materialize; nil means all.
	Projection []int
}

func NewUnresolvedTableScan(db, table string) *TableScan {
	return &TableScan{DatabaseName: db, TableName: table}
}

func NewResolvedTableScan(t sql.StoredTable) *TableScan {
	return &TableScan{TableName: t.Name(), Table: t, schema: t.Schema()}
}

func (t *TableScan) Schema() sql.Schema {
	if t.Projection == nil {
		return t.schema
	}
	out := make(sql.Schema, len(t.Projection))
	for i, p := range t.Projection {
		out[i] = t.schema[p]
	}
	return out
}

func (t *TableScan) Children() []sql.Node { return nil }
func (t *TableScan) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("TableScan: expected 0 children, got %d", len(children))
	}
	return t, nil
}
func (t *TableScan) Resolved() bool { return t.Table != nil }
func (t *TableScan) String() string {
	if t.Projection != nil {
		return fmt.Sprintf("TableScan(%s, projection=%v)", t.TableName, t.Projection)
	}
	return fmt.Sprintf("TableScan(%s)", t.TableName)
}

// WithProjection returns a copy scanning only the given table-schema
// positions (§4.5 "honors a projection hint").
func (t *TableScan) WithProjection(positions []int) *TableScan {
	cp := *t
	cp.Projection = positions
	return &cp
}

// Values is a literal row set (`VALUES (...), (...)`), §3 "Values".
type Values struct {
	schema sql.Schema
	Rows   [][]sql.Expression
}

func NewValues(schema sql.Schema, rows [][]sql.Expression) *Values {
	return &Values{schema: schema, Rows: rows}
}

func (v *Values) Schema() sql.Schema { return v.schema }
func (v *Values) Children() []sql.Node { return nil }
func (v *Values) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("Values: expected 0 children, got %d", len(children))
	}
	return v, nil
}
func (v *Values) Resolved() bool {
	for _, row := range v.Rows {
		for _, e := range row {
			if !e.Resolved() {
				return false
			}
		}
	}
	return true
}
func (v *Values) String() string { return fmt.Sprintf("Values(%d rows)", len(v.Rows)) }

func (v *Values) Expressions() []sql.Expression {
	var out []sql.Expression
	for _, row := range v.Rows {
		out = append(out, row...)
	}
	return out
}

func (v *Values) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	out := &Values{schema: v.schema}
	i := 0
	for _, row := range v.Rows {
		newRow := make([]sql.Expression, len(row))
		copy(newRow, exprs[i:i+len(row)])
		i += len(row)
		out.Rows = append(out.Rows, newRow)
	}
	return out, nil
}

// Empty is the canonical "zero rows, known schema" node produced by
// constant-FALSE filters, LIMIT 0, and empty-input propagation (§4.4 Empty
// propagation).
type Empty struct {
	schema sql.Schema
}

func NewEmpty(schema sql.Schema) *Empty { return &Empty{schema: schema} }

func (e *Empty) Schema() sql.Schema { return e.schema }
func (e *Empty) Children() []sql.Node { return nil }
func (e *Empty) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("Empty: expected 0 children, got %d", len(children))
	}
	return e, nil
}
func (e *Empty) Resolved() bool { return true }
func (e *Empty) String() string {
	names := e.schema.Names()
	return fmt.Sprintf("Empty(%s)", strings.Join(names, ", "))
}
