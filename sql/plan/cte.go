package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// CteDef is one `WITH name [(cols)] AS (...)` binding. Recursive marks a
// `WITH RECURSIVE` binding whose Plan is expected to be a Union(ALL or not)
// of an anchor branch and a branch containing a self-referencing CteRef
// (§3 "WithCte", §4.5 "CTE/Recursive CTE").
type CteDef struct {
	Name      string
	Plan      sql.Node
	Recursive bool
}

// WithCte materializes each non-recursive CTE once and iterates recursive
// ones to a fixed point before evaluating Query (§4.5).
type WithCte struct {
	Ctes  []CteDef
	Query sql.Node
}

func NewWithCte(ctes []CteDef, query sql.Node) *WithCte { return &WithCte{ctes, query} }

func (w *WithCte) Schema() sql.Schema { return w.Query.Schema() }
func (w *WithCte) Children() []sql.Node {
	out := make([]sql.Node, 0, len(w.Ctes)+1)
	for _, c := range w.Ctes {
		out = append(out, c.Plan)
	}
	out = append(out, w.Query)
	return out
}
func (w *WithCte) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != len(w.Ctes)+1 {
		return nil, fmt.Errorf("WithCte: expected %d children, got %d", len(w.Ctes)+1, len(children))
	}
	ctes := make([]CteDef, len(w.Ctes))
	for i, c := range w.Ctes {
		ctes[i] = CteDef{Name: c.Name, Plan: children[i], Recursive: c.Recursive}
	}
	return &WithCte{ctes, children[len(children)-1]}, nil
}
func (w *WithCte) Resolved() bool {
	for _, c := range w.Ctes {
		if !c.Plan.Resolved() {
			return false
		}
	}
	return w.Query.Resolved()
}
func (w *WithCte) String() string { return fmt.Sprintf("WithCte(%d ctes)", len(w.Ctes)) }

// CteRef is a reference to a materialized (or, mid-iteration, the
// previous-round working set of a recursive) CTE by name; the physical
// executor resolves Name against the query's CTE materialization map
// instead of the catalog (§4.5).
type CteRef struct {
	Name   string
	schema sql.Schema
}

func NewCteRef(name string, schema sql.Schema) *CteRef { return &CteRef{name, schema} }

func (r *CteRef) Schema() sql.Schema { return r.schema }
func (r *CteRef) Children() []sql.Node { return nil }
func (r *CteRef) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("CteRef: expected 0 children, got %d", len(children))
	}
	return r, nil
}
func (r *CteRef) Resolved() bool { return r.schema != nil }
func (r *CteRef) String() string { return fmt.Sprintf("CteRef(%s)", r.Name) }
