package expression

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// Subquery wraps a plan embedded in an expression position. Its Plan is
// opaque to sql/expression; only ctx.ExecPlan knows how to run it, which is
// how this package avoids importing sql/rowexec (see sql.Context.ExecPlan).
type Subquery struct {
	query sql.Node
}

func NewSubqueryNode(query sql.Node) Subquery { return Subquery{query: query} }
func (s Subquery) Query() sql.Node            { return s.query }

// run executes the embedded plan with rec bound as the correlated outer
// row, so an OuterColumn inside s.query resolves against it (§4.4 "Scalar
// subquery decorrelation": non-equi or multi-predicate correlations fall
// back to evaluating the subplan once per outer row here).
func (s Subquery) run(ctx *sql.Context, rec sql.Record) (*sql.TableData, error) {
	if ctx.ExecPlan == nil {
		return nil, fmt.Errorf("expression: subquery execution hook not wired")
	}
	return ctx.ExecPlan(ctx.WithOuter(rec), s.query)
}

// ScalarSubquery evaluates to its single row/single column result, or NULL
// if the subquery produces zero rows (§3 "a scalar subquery that returns no
// rows evaluates to NULL"). More than one row is a runtime error.
type ScalarSubquery struct {
	Subquery
	typ types.DataType
}

func NewScalarSubquery(query sql.Node, typ types.DataType) *ScalarSubquery {
	return &ScalarSubquery{Subquery: NewSubqueryNode(query), typ: typ}
}

func (s *ScalarSubquery) Type() types.DataType       { return s.typ }
func (s *ScalarSubquery) Nullable() bool             { return true }
func (s *ScalarSubquery) Resolved() bool             { return s.query.Resolved() }
func (s *ScalarSubquery) Children() []sql.Expression { return nil }
func (s *ScalarSubquery) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(s, children...); err != nil {
		return nil, err
	}
	return s, nil
}
func (s *ScalarSubquery) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	data, err := s.run(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	if data.RowCount() == 0 {
		return types.Null, nil
	}
	if data.RowCount() > 1 {
		return types.Value{}, fmt.Errorf("scalar subquery returned more than one row")
	}
	if data.NumColumns() != 1 {
		return types.Value{}, fmt.Errorf("scalar subquery must return exactly one column")
	}
	return data.Column(0).Get(0), nil
}
func (s *ScalarSubquery) String() string { return "(" + s.query.String() + ")" }

// ArraySubquery collects a single-column subquery's rows into one ARRAY
// value (§C supplement: `ARRAY(subquery)`).
type ArraySubquery struct {
	Subquery
	elemType types.DataType
}

func NewArraySubquery(query sql.Node, elemType types.DataType) *ArraySubquery {
	return &ArraySubquery{Subquery: NewSubqueryNode(query), elemType: elemType}
}

func (s *ArraySubquery) Type() types.DataType       { return types.ArrayOf(s.elemType) }
func (s *ArraySubquery) Nullable() bool             { return false }
func (s *ArraySubquery) Resolved() bool             { return s.query.Resolved() }
func (s *ArraySubquery) Children() []sql.Expression { return nil }
func (s *ArraySubquery) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(s, children...); err != nil {
		return nil, err
	}
	return s, nil
}
func (s *ArraySubquery) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	data, err := s.run(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	vals := make([]types.Value, data.RowCount())
	for i := range vals {
		vals[i] = data.Column(0).Get(i)
	}
	return types.NewArray(s.elemType, vals), nil
}
func (s *ArraySubquery) String() string { return "ARRAY(" + s.query.String() + ")" }

// InSubquery implements `x [NOT] IN (subquery)`, sharing the three-valued
// semantics of InList against the subquery's materialized single column.
type InSubquery struct {
	Subquery
	val     sql.Expression
	negated bool
}

func NewInSubquery(val sql.Expression, query sql.Node, negated bool) *InSubquery {
	return &InSubquery{Subquery: NewSubqueryNode(query), val: val, negated: negated}
}

func (s *InSubquery) Type() types.DataType { return types.Bool }
func (s *InSubquery) Nullable() bool       { return true }
func (s *InSubquery) Resolved() bool       { return s.val.Resolved() && s.query.Resolved() }
func (s *InSubquery) Children() []sql.Expression {
	return []sql.Expression{s.val}
}
func (s *InSubquery) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("InSubquery: expected 1 child, got %d", len(children))
	}
	return &InSubquery{Subquery: s.Subquery, val: children[0], negated: s.negated}, nil
}
func (s *InSubquery) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	v, err := s.val.Eval(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	data, err := s.run(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	col := data.Column(0)
	result, err := evalInSet(v, func(yield func(types.Value) error) error {
		for i := 0; i < col.Len(); i++ {
			if err := yield(col.Get(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.Value{}, err
	}
	if s.negated && !result.IsNull() {
		return types.NewBool(!result.AsBool()), nil
	}
	return result, nil
}
func (s *InSubquery) String() string {
	op := "IN"
	if s.negated {
		op = "NOT IN"
	}
	return fmt.Sprintf("(%s %s (%s))", s.val.String(), op, s.query.String())
}

// Exists implements `[NOT] EXISTS (subquery)`: TRUE iff the subquery
// produces at least one row, regardless of its column values (§3 "EXISTS").
type Exists struct {
	Subquery
	negated bool
}

func NewExists(query sql.Node, negated bool) *Exists {
	return &Exists{Subquery: NewSubqueryNode(query), negated: negated}
}

func (s *Exists) Type() types.DataType       { return types.Bool }
func (s *Exists) Nullable() bool             { return false }
func (s *Exists) Resolved() bool             { return s.query.Resolved() }
func (s *Exists) Children() []sql.Expression { return nil }
func (s *Exists) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if err := sameIfNoChildren(s, children...); err != nil {
		return nil, err
	}
	return s, nil
}
func (s *Exists) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	data, err := s.run(ctx, rec)
	if err != nil {
		return types.Value{}, err
	}
	exists := data.RowCount() > 0
	if s.negated {
		exists = !exists
	}
	return types.NewBool(exists), nil
}
func (s *Exists) String() string {
	if s.negated {
		return "NOT EXISTS (" + s.query.String() + ")"
	}
	return "EXISTS (" + s.query.String() + ")"
}
