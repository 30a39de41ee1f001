package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// unaryNode factors the single-child bookkeeping shared by Filter, Project,
// Sort, TopN, Limit, Distinct, Unnest, Qualify, Sample.
type unaryNode struct {
	Child sql.Node
}

func (u unaryNode) Children() []sql.Node { return []sql.Node{u.Child} }

// Filter keeps only rows where Predicate is TRUE (§3 "Filter").
type Filter struct {
	unaryNode
	Predicate sql.Expression
}

func NewFilter(predicate sql.Expression, child sql.Node) *Filter {
	return &Filter{unaryNode{child}, predicate}
}

func (f *Filter) Schema() sql.Schema { return f.Child.Schema() }
func (f *Filter) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Filter: expected 1 child, got %d", len(children))
	}
	return &Filter{unaryNode{children[0]}, f.Predicate}, nil
}
func (f *Filter) Resolved() bool { return f.Predicate.Resolved() && f.Child.Resolved() }
func (f *Filter) String() string { return fmt.Sprintf("Filter(%s)", f.Predicate) }
func (f *Filter) Expressions() []sql.Expression { return []sql.Expression{f.Predicate} }
func (f *Filter) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != 1 {
		return nil, fmt.Errorf("Filter: expected 1 expression, got %d", len(exprs))
	}
	return &Filter{f.unaryNode, exprs[0]}, nil
}

// ProjectColumn is one SELECT-list output: an expression plus its output
// field metadata.
type ProjectColumn struct {
	Expr  sql.Expression
	Field sql.Field
}

// Project evaluates each Columns entry against its input (§3 "Project").
type Project struct {
	unaryNode
	Columns []ProjectColumn
}

func NewProject(columns []ProjectColumn, child sql.Node) *Project {
	return &Project{unaryNode{child}, columns}
}

func (p *Project) Schema() sql.Schema {
	out := make(sql.Schema, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Field
	}
	return out
}
func (p *Project) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Project: expected 1 child, got %d", len(children))
	}
	return &Project{unaryNode{children[0]}, p.Columns}, nil
}
func (p *Project) Resolved() bool {
	if !p.Child.Resolved() {
		return false
	}
	for _, c := range p.Columns {
		if !c.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (p *Project) String() string { return fmt.Sprintf("Project(%d cols)", len(p.Columns)) }
func (p *Project) Expressions() []sql.Expression {
	out := make([]sql.Expression, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Expr
	}
	return out
}
func (p *Project) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(p.Columns) {
		return nil, fmt.Errorf("Project: expected %d expressions, got %d", len(p.Columns), len(exprs))
	}
	cols := make([]ProjectColumn, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = ProjectColumn{Expr: exprs[i], Field: c.Field}
	}
	return &Project{p.unaryNode, cols}, nil
}

// Sort orders rows by an ordered list of keys (§3 "Sort").
type Sort struct {
	unaryNode
	Keys []sql.SortField
}

func NewSort(keys []sql.SortField, child sql.Node) *Sort { return &Sort{unaryNode{child}, keys} }

func (s *Sort) Schema() sql.Schema { return s.Child.Schema() }
func (s *Sort) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Sort: expected 1 child, got %d", len(children))
	}
	return &Sort{unaryNode{children[0]}, s.Keys}, nil
}
func (s *Sort) Resolved() bool {
	if !s.Child.Resolved() {
		return false
	}
	for _, k := range s.Keys {
		if !k.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (s *Sort) String() string { return fmt.Sprintf("Sort(%d keys)", len(s.Keys)) }
func (s *Sort) Expressions() []sql.Expression {
	out := make([]sql.Expression, len(s.Keys))
	for i, k := range s.Keys {
		out[i] = k.Expr
	}
	return out
}
func (s *Sort) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(s.Keys) {
		return nil, fmt.Errorf("Sort: expected %d expressions, got %d", len(s.Keys), len(exprs))
	}
	keys := make([]sql.SortField, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = k.WithExpr(exprs[i])
	}
	return &Sort{s.unaryNode, keys}, nil
}

// TopN is a fused `ORDER BY ... LIMIT n` (§3 "TopN", §4.4 TopN pushdown).
type TopN struct {
	unaryNode
	Keys []sql.SortField
	N    int
}

func NewTopN(n int, keys []sql.SortField, child sql.Node) *TopN {
	return &TopN{unaryNode{child}, keys, n}
}

func (t *TopN) Schema() sql.Schema { return t.Child.Schema() }
func (t *TopN) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("TopN: expected 1 child, got %d", len(children))
	}
	return &TopN{unaryNode{children[0]}, t.Keys, t.N}, nil
}
func (t *TopN) Resolved() bool {
	if !t.Child.Resolved() {
		return false
	}
	for _, k := range t.Keys {
		if !k.Expr.Resolved() {
			return false
		}
	}
	return true
}
func (t *TopN) String() string { return fmt.Sprintf("TopN(%d, %d keys)", t.N, len(t.Keys)) }
func (t *TopN) Expressions() []sql.Expression {
	out := make([]sql.Expression, len(t.Keys))
	for i, k := range t.Keys {
		out[i] = k.Expr
	}
	return out
}
func (t *TopN) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	keys := make([]sql.SortField, len(t.Keys))
	for i, k := range t.Keys {
		keys[i] = k.WithExpr(exprs[i])
	}
	return &TopN{t.unaryNode, keys, t.N}, nil
}

// Limit/Offset slices rows (§3 "Limit").
type Limit struct {
	unaryNode
	N      int64
	Offset int64
}

func NewLimit(n int64, child sql.Node) *Limit { return &Limit{unaryNode{child}, n, 0} }
func (l *Limit) WithOffset(off int64) *Limit  { l.Offset = off; return l }

func (l *Limit) Schema() sql.Schema { return l.Child.Schema() }
func (l *Limit) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Limit: expected 1 child, got %d", len(children))
	}
	return &Limit{unaryNode{children[0]}, l.N, l.Offset}, nil
}
func (l *Limit) Resolved() bool { return l.Child.Resolved() }
func (l *Limit) String() string { return fmt.Sprintf("Limit(%d, offset=%d)", l.N, l.Offset) }

// Distinct deduplicates whole rows (§3 "Distinct").
type Distinct struct{ unaryNode }

func NewDistinct(child sql.Node) *Distinct { return &Distinct{unaryNode{child}} }

func (d *Distinct) Schema() sql.Schema { return d.Child.Schema() }
func (d *Distinct) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Distinct: expected 1 child, got %d", len(children))
	}
	return &Distinct{unaryNode{children[0]}}, nil
}
func (d *Distinct) Resolved() bool { return d.Child.Resolved() }
func (d *Distinct) String() string { return "Distinct" }

// Qualify is a post-window filter (§3 "Qualify", §4.5).
type Qualify struct {
	unaryNode
	Predicate sql.Expression
}

func NewQualify(predicate sql.Expression, child sql.Node) *Qualify {
	return &Qualify{unaryNode{child}, predicate}
}

func (q *Qualify) Schema() sql.Schema { return q.Child.Schema() }
func (q *Qualify) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Qualify: expected 1 child, got %d", len(children))
	}
	return &Qualify{unaryNode{children[0]}, q.Predicate}, nil
}
func (q *Qualify) Resolved() bool { return q.Predicate.Resolved() && q.Child.Resolved() }
func (q *Qualify) String() string { return fmt.Sprintf("Qualify(%s)", q.Predicate) }
func (q *Qualify) Expressions() []sql.Expression { return []sql.Expression{q.Predicate} }
func (q *Qualify) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	return &Qualify{q.unaryNode, exprs[0]}, nil
}

// Sample implements `TABLESAMPLE SYSTEM (pct PERCENT)`-style row sampling.
type Sample struct {
	unaryNode
	Percent float64
}

func NewSample(percent float64, child sql.Node) *Sample { return &Sample{unaryNode{child}, percent} }

func (s *Sample) Schema() sql.Schema { return s.Child.Schema() }
func (s *Sample) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Sample: expected 1 child, got %d", len(children))
	}
	return &Sample{unaryNode{children[0]}, s.Percent}, nil
}
func (s *Sample) Resolved() bool { return s.Child.Resolved() }
func (s *Sample) String() string { return fmt.Sprintf("Sample(%.2f%%)", s.Percent) }

// Unnest expands an array-valued expression into one row per element,
// optionally emitting an OFFSET column (§3 "Unnest", §4.5).
type Unnest struct {
	unaryNode
	Expr         sql.Expression
	Alias        string
	WithOffset   bool
	OffsetAlias  string
	outputSchema sql.Schema
}

func NewUnnest(expr sql.Expression, alias string, withOffset bool, offsetAlias string, child sql.Node, outputSchema sql.Schema) *Unnest {
	return &Unnest{unaryNode{child}, expr, alias, withOffset, offsetAlias, outputSchema}
}

func (u *Unnest) Schema() sql.Schema { return u.outputSchema }
func (u *Unnest) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Unnest: expected 1 child, got %d", len(children))
	}
	cp := *u
	cp.Child = children[0]
	return &cp, nil
}
func (u *Unnest) Resolved() bool { return u.Expr.Resolved() && u.Child.Resolved() }
func (u *Unnest) String() string { return fmt.Sprintf("Unnest(%s)", u.Expr) }
func (u *Unnest) Expressions() []sql.Expression { return []sql.Expression{u.Expr} }
func (u *Unnest) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	cp := *u
	cp.Expr = exprs[0]
	return &cp, nil
}
