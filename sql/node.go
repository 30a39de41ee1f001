package sql

// Node is the common interface of every logical/physical plan node (§3
// "Plan"). Concrete node kinds live in package plan; the interface lives
// here so plan, analyzer, and rowexec can all depend on it without a cycle.
type Node interface {
	// Schema is this node's output schema; parents and children agree on
	// column positions (§3 invariant).
	Schema() Schema
	// Children returns immediate child plans.
	Children() []Node
	// WithChildren returns a copy of this node with its children replaced.
	WithChildren(children ...Node) (Node, error)
	// Resolved is false while any name reference inside the node (table,
	// column, function) remains unresolved.
	Resolved() bool
	// String renders the node for plan printing/debugging and is also
	// used as a cheap structural-equality proxy in a few passes.
	String() string
}

// Equal reports structural (deep) equality of two plan trees (§3 "Node
// equality is structural (deep) and used by rewrite idempotence tests").
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !a.Schema().Equal(b.Schema()) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	if a.String() != b.String() {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// ExpressionHolder is implemented by nodes that carry expressions of their
// own (Filter's predicate, Project's projections, ...), letting generic
// rewrite passes inspect/replace them without a type switch over every node
// kind.
type ExpressionHolder interface {
	Node
	Expressions() []Expression
	WithExpressions(exprs ...Expression) (Node, error)
}
