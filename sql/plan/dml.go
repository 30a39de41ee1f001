package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// dmlResultSchema is the zero-column schema every DML node reports: DML
// produces an effect plus an empty result table (§4.6 "an effect + empty
// result for DDL/DML").
var dmlResultSchema = sql.Schema{}

// Insert appends Source's rows into Table (§3 "Insert", §4.5).
type Insert struct {
	Table  *TableScan
	Source sql.Node
}

func NewInsert(table *TableScan, source sql.Node) *Insert { return &Insert{table, source} }

func (i *Insert) Schema() sql.Schema   { return dmlResultSchema }
func (i *Insert) Children() []sql.Node { return []sql.Node{i.Table, i.Source} }
func (i *Insert) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Insert: expected 2 children, got %d", len(children))
	}
	ts, ok := children[0].(*TableScan)
	if !ok {
		return nil, fmt.Errorf("Insert: first child must be a TableScan")
	}
	return &Insert{ts, children[1]}, nil
}
func (i *Insert) Resolved() bool { return i.Table.Resolved() && i.Source.Resolved() }
func (i *Insert) String() string { return fmt.Sprintf("Insert(%s)", i.Table.TableName) }

// Update rewrites the columns named in Sets for every row of Child that
// survives its embedded filter (the planner wraps Child in a Filter when a
// WHERE clause is present) (§3 "Update", §4.5).
type Update struct {
	Table *TableScan
	Child sql.Node
	Sets  []UpdateSet
}

// UpdateSet is one `col = expr` assignment, Expr evaluated against Child's
// schema (the pre-image row).
type UpdateSet struct {
	ColumnIndex int
	Expr        sql.Expression
}

func NewUpdate(table *TableScan, child sql.Node, sets []UpdateSet) *Update {
	return &Update{table, child, sets}
}

func (u *Update) Schema() sql.Schema   { return dmlResultSchema }
func (u *Update) Children() []sql.Node { return []sql.Node{u.Table, u.Child} }
func (u *Update) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Update: expected 2 children, got %d", len(children))
	}
	ts, ok := children[0].(*TableScan)
	if !ok {
		return nil, fmt.Errorf("Update: first child must be a TableScan")
	}
	return &Update{ts, children[1], u.Sets}, nil
}
func (u *Update) Resolved() bool {
	if !u.Table.Resolved() || !u.Child.Resolved() {
		return false
	}
	for _, s := range u.Sets {
		if !s.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (u *Update) String() string { return fmt.Sprintf("Update(%s, %d sets)", u.Table.TableName, len(u.Sets)) }
func (u *Update) Expressions() []sql.Expression {
	out := make([]sql.Expression, len(u.Sets))
	for i, s := range u.Sets {
		out[i] = s.Expr
	}
	return out
}
func (u *Update) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	sets := make([]UpdateSet, len(u.Sets))
	for i, s := range u.Sets {
		sets[i] = UpdateSet{ColumnIndex: s.ColumnIndex, Expr: exprs[i]}
	}
	cp := *u
	cp.Sets = sets
	return &cp, nil
}

// Delete removes the rows of Child (already filtered by the WHERE clause)
// from Table (§3 "Delete", §4.5).
type Delete struct {
	Table *TableScan
	Child sql.Node
}

func NewDelete(table *TableScan, child sql.Node) *Delete { return &Delete{table, child} }

func (d *Delete) Schema() sql.Schema   { return dmlResultSchema }
func (d *Delete) Children() []sql.Node { return []sql.Node{d.Table, d.Child} }
func (d *Delete) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Delete: expected 2 children, got %d", len(children))
	}
	ts, ok := children[0].(*TableScan)
	if !ok {
		return nil, fmt.Errorf("Delete: first child must be a TableScan")
	}
	return &Delete{ts, children[1]}, nil
}
func (d *Delete) Resolved() bool { return d.Table.Resolved() && d.Child.Resolved() }
func (d *Delete) String() string { return fmt.Sprintf("Delete(%s)", d.Table.TableName) }

// MergeAction is one WHEN clause of a MERGE statement.
type MergeAction struct {
	Matched     bool // true = WHEN MATCHED, false = WHEN NOT MATCHED [BY TARGET]
	ByTargetNot bool // WHEN NOT MATCHED BY SOURCE
	Condition   sql.Expression
	IsDelete    bool
	IsInsert    bool
	Sets        []UpdateSet
	InsertCols  []int
	InsertExprs []sql.Expression
}

// Merge implements BigQuery-style multi-clause MERGE (§3 "Merge", §4.5).
type Merge struct {
	Table   *TableScan
	Source  sql.Node
	On      sql.Expression
	Actions []MergeAction
}

func NewMerge(table *TableScan, source sql.Node, on sql.Expression, actions []MergeAction) *Merge {
	return &Merge{table, source, on, actions}
}

func (m *Merge) Schema() sql.Schema   { return dmlResultSchema }
func (m *Merge) Children() []sql.Node { return []sql.Node{m.Table, m.Source} }
func (m *Merge) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("Merge: expected 2 children, got %d", len(children))
	}
	ts, ok := children[0].(*TableScan)
	if !ok {
		return nil, fmt.Errorf("Merge: first child must be a TableScan")
	}
	return &Merge{ts, children[1], m.On, m.Actions}, nil
}
func (m *Merge) Resolved() bool { return m.Table.Resolved() && m.Source.Resolved() && m.On.Resolved() }
func (m *Merge) String() string { return fmt.Sprintf("Merge(%s, %d actions)", m.Table.TableName, len(m.Actions)) }
