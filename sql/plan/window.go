package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
)

// Window evaluates one or more OVER(...) calls against its input, appending
// each as an output column (§3 "Window", §4.5).
type Window struct {
	unaryNode
	Funcs     []*expression.Window
	FuncNames []string
}

func NewWindow(funcs []*expression.Window, names []string, child sql.Node) *Window {
	return &Window{unaryNode{child}, funcs, names}
}

func (w *Window) Schema() sql.Schema {
	out := append(sql.Schema{}, w.Child.Schema()...)
	for i, f := range w.Funcs {
		out = append(out, sql.Field{Name: w.FuncNames[i], Type: f.Type(), Nullable: true})
	}
	return out
}
func (w *Window) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Window: expected 1 child, got %d", len(children))
	}
	cp := *w
	cp.Child = children[0]
	return &cp, nil
}
func (w *Window) Resolved() bool {
	if !w.Child.Resolved() {
		return false
	}
	for _, f := range w.Funcs {
		if !f.Resolved() {
			return false
		}
	}
	return true
}
func (w *Window) String() string { return fmt.Sprintf("Window(%d funcs)", len(w.Funcs)) }
func (w *Window) Expressions() []sql.Expression {
	out := make([]sql.Expression, len(w.Funcs))
	for i, f := range w.Funcs {
		out[i] = f
	}
	return out
}
func (w *Window) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(w.Funcs) {
		return nil, fmt.Errorf("Window: expected %d expressions, got %d", len(w.Funcs), len(exprs))
	}
	cp := *w
	cp.Funcs = make([]*expression.Window, len(exprs))
	for i, e := range exprs {
		wf, ok := e.(*expression.Window)
		if !ok {
			return nil, fmt.Errorf("Window: expression %d is not a window func", i)
		}
		cp.Funcs[i] = wf
	}
	return &cp, nil
}
