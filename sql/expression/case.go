package expression

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// CaseBranch is one WHEN cond THEN result pair.
type CaseBranch struct {
	Cond   sql.Expression
	Result sql.Expression
}

// Case implements both searched (`CASE WHEN ... THEN ...`) and simple
// (`CASE expr WHEN v THEN ...`) CASE; the planbuilder desugars the simple
// form into a searched one by pairing Value with each WHEN via equality, so
// this node only needs to carry the searched shape (§3 "CASE").
type Case struct {
	branches []CaseBranch
	elseExpr sql.Expression
	typ      types.DataType
}

func NewCase(branches []CaseBranch, elseExpr sql.Expression, typ types.DataType) *Case {
	return &Case{branches: branches, elseExpr: elseExpr, typ: typ}
}

func (c *Case) Type() types.DataType { return c.typ }
func (c *Case) Nullable() bool       { return true }
func (c *Case) Resolved() bool {
	for _, b := range c.branches {
		if !b.Cond.Resolved() || !b.Result.Resolved() {
			return false
		}
	}
	return c.elseExpr == nil || c.elseExpr.Resolved()
}
func (c *Case) Children() []sql.Expression {
	children := make([]sql.Expression, 0, len(c.branches)*2+1)
	for _, b := range c.branches {
		children = append(children, b.Cond, b.Result)
	}
	if c.elseExpr != nil {
		children = append(children, c.elseExpr)
	}
	return children
}
func (c *Case) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	want := len(c.branches) * 2
	if c.elseExpr != nil {
		want++
	}
	if len(children) != want {
		return nil, fmt.Errorf("Case: expected %d children, got %d", want, len(children))
	}
	branches := make([]CaseBranch, len(c.branches))
	for i := range branches {
		branches[i] = CaseBranch{Cond: children[i*2], Result: children[i*2+1]}
	}
	var elseExpr sql.Expression
	if c.elseExpr != nil {
		elseExpr = children[len(children)-1]
	}
	return &Case{branches: branches, elseExpr: elseExpr, typ: c.typ}, nil
}

// Eval returns the result of the first branch whose condition evaluates
// TRUE (a NULL or FALSE condition is skipped); otherwise ELSE, or NULL when
// there is no ELSE clause.
func (c *Case) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	for _, b := range c.branches {
		cond, err := b.Cond.Eval(ctx, rec)
		if err != nil {
			return types.Value{}, err
		}
		if !cond.IsNull() && cond.AsBool() {
			return b.Result.Eval(ctx, rec)
		}
	}
	if c.elseExpr != nil {
		return c.elseExpr.Eval(ctx, rec)
	}
	return types.Null, nil
}

func (c *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, b := range c.branches {
		sb.WriteString(" WHEN ")
		sb.WriteString(b.Cond.String())
		sb.WriteString(" THEN ")
		sb.WriteString(b.Result.String())
	}
	if c.elseExpr != nil {
		sb.WriteString(" ELSE ")
		sb.WriteString(c.elseExpr.String())
	}
	sb.WriteString(" END")
	return sb.String()
}
