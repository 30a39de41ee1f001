package expression

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// Aggregate is one `func(args) [FILTER (...)] [ORDER BY ...] [LIMIT n]`
// aggregate call (§3 "Aggregate{func,args,distinct,filter,order_by,limit,
// ignore_nulls}"). It is never evaluated directly: HashAggregate extracts
// its Args row-at-a-time to feed an accumulator and the planner replaces the
// call site with a GetField into the aggregate's output column once
// execution produces it, matching the teacher's own "aggregation expression
// is a marker, not a value producer" convention.
type Aggregate struct {
	Func        string
	Args        []sql.Expression
	Distinct    bool
	Filter      sql.Expression // nil if no FILTER (WHERE ...)
	OrderBy     []sql.SortField
	Limit       int // -1 means unlimited
	IgnoreNulls bool
	typ         types.DataType
}

func NewAggregate(fn string, args []sql.Expression, typ types.DataType) *Aggregate {
	return &Aggregate{Func: strings.ToUpper(fn), Args: args, Limit: -1, typ: typ}
}

func (a *Aggregate) WithDistinct(d bool) *Aggregate            { a.Distinct = d; return a }
func (a *Aggregate) WithFilter(f sql.Expression) *Aggregate    { a.Filter = f; return a }
func (a *Aggregate) WithOrderBy(o []sql.SortField) *Aggregate  { a.OrderBy = o; return a }
func (a *Aggregate) WithLimit(n int) *Aggregate                { a.Limit = n; return a }
func (a *Aggregate) WithIgnoreNulls(v bool) *Aggregate         { a.IgnoreNulls = v; return a }

func (a *Aggregate) Type() types.DataType { return a.typ }
func (a *Aggregate) Nullable() bool       { return true }
func (a *Aggregate) Resolved() bool {
	for _, arg := range a.Args {
		if !arg.Resolved() {
			return false
		}
	}
	if a.Filter != nil && !a.Filter.Resolved() {
		return false
	}
	for _, o := range a.OrderBy {
		if !o.Expr.Resolved() {
			return false
		}
	}
	return true
}

func (a *Aggregate) Children() []sql.Expression {
	out := append([]sql.Expression{}, a.Args...)
	if a.Filter != nil {
		out = append(out, a.Filter)
	}
	for _, o := range a.OrderBy {
		out = append(out, o.Expr)
	}
	return out
}

func (a *Aggregate) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	n := len(a.Args)
	if a.Filter != nil {
		n++
	}
	n += len(a.OrderBy)
	if len(children) != n {
		return nil, fmt.Errorf("Aggregate %s: expected %d children, got %d", a.Func, n, len(children))
	}
	out := &Aggregate{Func: a.Func, Distinct: a.Distinct, Limit: a.Limit, IgnoreNulls: a.IgnoreNulls, typ: a.typ}
	i := 0
	out.Args = append(out.Args, children[i:i+len(a.Args)]...)
	i += len(a.Args)
	if a.Filter != nil {
		out.Filter = children[i]
		i++
	}
	for range a.OrderBy {
		out.OrderBy = append(out.OrderBy, sql.SortField{})
	}
	for j := range a.OrderBy {
		out.OrderBy[j] = a.OrderBy[j].WithExpr(children[i])
		i++
	}
	return out, nil
}

// Eval is unreachable in a correctly planned query: HashAggregate never
// evaluates the Aggregate node itself, only its Args.
func (a *Aggregate) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return types.Value{}, fmt.Errorf("aggregate %s evaluated outside HashAggregate", a.Func)
}

func (a *Aggregate) String() string {
	argStrs := make([]string, len(a.Args))
	for i, arg := range a.Args {
		argStrs[i] = arg.String()
	}
	prefix := ""
	if a.Distinct {
		prefix = "DISTINCT "
	}
	s := fmt.Sprintf("%s(%s%s)", a.Func, prefix, strings.Join(argStrs, ", "))
	if a.Filter != nil {
		s += " FILTER (WHERE " + a.Filter.String() + ")"
	}
	return s
}

// WindowFrameMode distinguishes ROWS and RANGE framing.
type WindowFrameMode int

const (
	FrameRows WindowFrameMode = iota
	FrameRange
)

// FrameBoundKind names one edge of a window frame.
type FrameBoundKind int

const (
	BoundUnboundedPreceding FrameBoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// FrameBound is one edge (`N PRECEDING`, `CURRENT ROW`, `N FOLLOWING`, or an
// unbounded variant) of a window frame.
type FrameBound struct {
	Kind   FrameBoundKind
	Offset int64 // meaningful only for Preceding/Following
}

// WindowFrame is the `ROWS|RANGE BETWEEN ... AND ...` clause (§4.5 Window).
type WindowFrame struct {
	Mode  WindowFrameMode
	Start FrameBound
	End   FrameBound
}

// DefaultFrame is the SQL-standard default frame for an aggregate window
// function with an ORDER BY clause: RANGE UNBOUNDED PRECEDING TO CURRENT ROW.
func DefaultFrame() WindowFrame {
	return WindowFrame{Mode: FrameRange, Start: FrameBound{Kind: BoundUnboundedPreceding}, End: FrameBound{Kind: BoundCurrentRow}}
}

// UnboundedFrame spans the whole partition, used by ranking/navigation
// functions and aggregate windows with no ORDER BY.
func UnboundedFrame() WindowFrame {
	return WindowFrame{Mode: FrameRows, Start: FrameBound{Kind: BoundUnboundedPreceding}, End: FrameBound{Kind: BoundUnboundedFollowing}}
}

// Window is a ranking/navigation/aggregate window call (§3 "Window{func,
// args,partition_by,order_by,frame}"). Like Aggregate, it is a marker
// consumed by the Window physical operator, not evaluated directly.
type Window struct {
	Func         string
	Args         []sql.Expression
	PartitionBy  []sql.Expression
	OrderBy      []sql.SortField
	Frame        WindowFrame
	HasFrame     bool
	typ          types.DataType
}

func NewWindow(fn string, args []sql.Expression, partitionBy []sql.Expression, orderBy []sql.SortField, typ types.DataType) *Window {
	return &Window{Func: strings.ToUpper(fn), Args: args, PartitionBy: partitionBy, OrderBy: orderBy, typ: typ}
}

func (w *Window) WithFrame(f WindowFrame) *Window { w.Frame = f; w.HasFrame = true; return w }

func (w *Window) Type() types.DataType { return w.typ }
func (w *Window) Nullable() bool       { return true }
func (w *Window) Resolved() bool {
	for _, e := range w.allChildren() {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

func (w *Window) allChildren() []sql.Expression {
	out := append([]sql.Expression{}, w.Args...)
	out = append(out, w.PartitionBy...)
	for _, o := range w.OrderBy {
		out = append(out, o.Expr)
	}
	return out
}

func (w *Window) Children() []sql.Expression { return w.allChildren() }

func (w *Window) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	n := len(w.Args) + len(w.PartitionBy) + len(w.OrderBy)
	if len(children) != n {
		return nil, fmt.Errorf("Window %s: expected %d children, got %d", w.Func, n, len(children))
	}
	out := &Window{Func: w.Func, Frame: w.Frame, HasFrame: w.HasFrame, typ: w.typ}
	i := 0
	out.Args = append(out.Args, children[i:i+len(w.Args)]...)
	i += len(w.Args)
	out.PartitionBy = append(out.PartitionBy, children[i:i+len(w.PartitionBy)]...)
	i += len(w.PartitionBy)
	for j := range w.OrderBy {
		out.OrderBy = append(out.OrderBy, w.OrderBy[j].WithExpr(children[i]))
		i++
	}
	return out, nil
}

func (w *Window) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return types.Value{}, fmt.Errorf("window function %s evaluated outside the Window operator", w.Func)
}

func (w *Window) String() string {
	argStrs := make([]string, len(w.Args))
	for i, a := range w.Args {
		argStrs[i] = a.String()
	}
	return fmt.Sprintf("%s(%s) OVER (...)", w.Func, strings.Join(argStrs, ", "))
}

// Lambda is an inline `x -> expr` used by higher-order array functions
// (§3 "Lambda"). Its Body is evaluated with Params bound as extra positional
// slots appended to the outer record by the caller (e.g. ARRAY_FILTER).
type Lambda struct {
	Params []string
	Body   sql.Expression
}

func NewLambda(params []string, body sql.Expression) *Lambda {
	return &Lambda{Params: params, Body: body}
}

func (l *Lambda) Type() types.DataType          { return l.Body.Type() }
func (l *Lambda) Nullable() bool                { return true }
func (l *Lambda) Resolved() bool                { return l.Body.Resolved() }
func (l *Lambda) Children() []sql.Expression    { return []sql.Expression{l.Body} }
func (l *Lambda) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("Lambda: expected 1 child, got %d", len(children))
	}
	return &Lambda{Params: l.Params, Body: children[0]}, nil
}
func (l *Lambda) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	return l.Body.Eval(ctx, rec)
}
func (l *Lambda) String() string {
	return "(" + strings.Join(l.Params, ", ") + ") -> " + l.Body.String()
}
