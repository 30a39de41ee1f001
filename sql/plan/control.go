package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// Block is a sequence of statements executed in order, the body of a
// procedural script or a control-flow branch (§3 "Block").
type Block struct {
	Stmts []sql.Node
}

func NewBlock(stmts ...sql.Node) *Block { return &Block{stmts} }

func (b *Block) Schema() sql.Schema {
	if len(b.Stmts) == 0 {
		return dmlResultSchema
	}
	return b.Stmts[len(b.Stmts)-1].Schema()
}
func (b *Block) Children() []sql.Node { return b.Stmts }
func (b *Block) WithChildren(children ...sql.Node) (sql.Node, error) { return &Block{children}, nil }
func (b *Block) Resolved() bool {
	for _, s := range b.Stmts {
		if !s.Resolved() {
			return false
		}
	}
	return true
}
func (b *Block) String() string { return fmt.Sprintf("Block(%d stmts)", len(b.Stmts)) }

// If is `IF cond THEN then [ELSE else] END IF` (§3 "If").
type If struct {
	Condition sql.Expression
	Then      sql.Node
	Else      sql.Node // nil if no ELSE
}

func NewIf(cond sql.Expression, then, els sql.Node) *If { return &If{cond, then, els} }

func (n *If) Schema() sql.Schema { return n.Then.Schema() }
func (n *If) Children() []sql.Node {
	if n.Else == nil {
		return []sql.Node{n.Then}
	}
	return []sql.Node{n.Then, n.Else}
}
func (n *If) WithChildren(children ...sql.Node) (sql.Node, error) {
	cp := *n
	cp.Then = children[0]
	if len(children) > 1 {
		cp.Else = children[1]
	}
	return &cp, nil
}
func (n *If) Resolved() bool {
	if !n.Condition.Resolved() || !n.Then.Resolved() {
		return false
	}
	return n.Else == nil || n.Else.Resolved()
}
func (n *If) String() string { return "If" }
func (n *If) Expressions() []sql.Expression { return []sql.Expression{n.Condition} }
func (n *If) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	cp := *n
	cp.Condition = exprs[0]
	return &cp, nil
}

// While is `WHILE cond DO body END WHILE` (§3 "While").
type While struct {
	Condition sql.Expression
	Body      sql.Node
}

func NewWhile(cond sql.Expression, body sql.Node) *While { return &While{cond, body} }

func (w *While) Schema() sql.Schema   { return dmlResultSchema }
func (w *While) Children() []sql.Node { return []sql.Node{w.Body} }
func (w *While) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &While{w.Condition, children[0]}, nil
}
func (w *While) Resolved() bool { return w.Condition.Resolved() && w.Body.Resolved() }
func (w *While) String() string { return "While" }
func (w *While) Expressions() []sql.Expression { return []sql.Expression{w.Condition} }
func (w *While) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	return &While{exprs[0], w.Body}, nil
}

// Loop is an unconditional `LOOP body END LOOP`, exited only via a nested
// break/return control-transfer statement evaluated by the executor loop
// runner (§3 "Loop").
type Loop struct{ Body sql.Node }

func NewLoop(body sql.Node) *Loop { return &Loop{body} }

func (l *Loop) Schema() sql.Schema   { return dmlResultSchema }
func (l *Loop) Children() []sql.Node { return []sql.Node{l.Body} }
func (l *Loop) WithChildren(children ...sql.Node) (sql.Node, error) { return &Loop{children[0]}, nil }
func (l *Loop) Resolved() bool { return l.Body.Resolved() }
func (l *Loop) String() string { return "Loop" }

// For is `FOR row IN (query) DO body END FOR`, iterating Query's result
// rows and binding each as a record for Body (§3 "For").
type For struct {
	Alias string
	Query sql.Node
	Body  sql.Node
}

func NewFor(alias string, query, body sql.Node) *For { return &For{alias, query, body} }

func (f *For) Schema() sql.Schema   { return dmlResultSchema }
func (f *For) Children() []sql.Node { return []sql.Node{f.Query, f.Body} }
func (f *For) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &For{f.Alias, children[0], children[1]}, nil
}
func (f *For) Resolved() bool { return f.Query.Resolved() && f.Body.Resolved() }
func (f *For) String() string { return fmt.Sprintf("For(%s)", f.Alias) }

// Repeat is `REPEAT body UNTIL cond END REPEAT` (body runs at least once).
type Repeat struct {
	Body      sql.Node
	Condition sql.Expression
}

func NewRepeat(body sql.Node, cond sql.Expression) *Repeat { return &Repeat{body, cond} }

func (r *Repeat) Schema() sql.Schema   { return dmlResultSchema }
func (r *Repeat) Children() []sql.Node { return []sql.Node{r.Body} }
func (r *Repeat) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &Repeat{children[0], r.Condition}, nil
}
func (r *Repeat) Resolved() bool { return r.Body.Resolved() && r.Condition.Resolved() }
func (r *Repeat) String() string { return "Repeat" }
func (r *Repeat) Expressions() []sql.Expression { return []sql.Expression{r.Condition} }
func (r *Repeat) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	return &Repeat{r.Body, exprs[0]}, nil
}

// TryCatch runs Try, and on error runs Catch instead of propagating
// (§3 "TryCatch").
type TryCatch struct {
	Try   sql.Node
	Catch sql.Node
}

func NewTryCatch(try, catch sql.Node) *TryCatch { return &TryCatch{try, catch} }

func (t *TryCatch) Schema() sql.Schema   { return t.Try.Schema() }
func (t *TryCatch) Children() []sql.Node { return []sql.Node{t.Try, t.Catch} }
func (t *TryCatch) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &TryCatch{children[0], children[1]}, nil
}
func (t *TryCatch) Resolved() bool { return t.Try.Resolved() && t.Catch.Resolved() }
func (t *TryCatch) String() string { return "TryCatch" }

// Return exits the enclosing procedural Block/Loop with an optional value
// (§3 "Return").
type Return struct {
	Value sql.Expression // nil for a bare RETURN
}

func NewReturn(value sql.Expression) *Return { return &Return{value} }

func (r *Return) Schema() sql.Schema   { return dmlResultSchema }
func (r *Return) Children() []sql.Node { return nil }
func (r *Return) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("Return: expected 0 children, got %d", len(children))
	}
	return r, nil
}
func (r *Return) Resolved() bool { return r.Value == nil || r.Value.Resolved() }
func (r *Return) String() string { return "Return" }
func (r *Return) Expressions() []sql.Expression {
	if r.Value == nil {
		return nil
	}
	return []sql.Expression{r.Value}
}
func (r *Return) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) == 0 {
		return &Return{nil}, nil
	}
	return &Return{exprs[0]}, nil
}

// Break exits the nearest enclosing Loop/While/For/Repeat (§3 "Break"/
// "Leave"). Label keeps the name given to LEAVE, but loop nodes carry no
// label to match it against, so a labeled Break also ends the nearest
// enclosing loop. The executor's loop runner catches it as a sentinel
// control-transfer signal rather than an error.
type Break struct{ Label string }

func NewBreak(label string) *Break { return &Break{label} }

func (b *Break) Schema() sql.Schema   { return dmlResultSchema }
func (b *Break) Children() []sql.Node { return nil }
func (b *Break) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("Break: expected 0 children, got %d", len(children))
	}
	return b, nil
}
func (b *Break) Resolved() bool { return true }
func (b *Break) String() string {
	if b.Label != "" {
		return fmt.Sprintf("Break(%s)", b.Label)
	}
	return "Break"
}
