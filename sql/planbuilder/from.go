package planbuilder

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// emptyRowSentinelName marks the zero-column, one-row Values node buildFrom
// starts from for a FROM-less `SELECT expr`; cross-joining against it would
// be a no-op, so isEmptyValuesNode lets later FROM items skip it instead.
type emptyRowSentinel struct{ *plan.Values }

func isEmptyValuesNode(n sql.Node) bool {
	_, ok := n.(emptyRowSentinel)
	return ok
}

func newEmptyFromScope() *outScope {
	return &outScope{node: emptyRowSentinel{plan.NewValues(sql.Schema{}, [][]sql.Expression{{}})}, schema: sql.Schema{}}
}

// buildFrom builds every FROM-clause item left to right, threading an
// accumulating outScope so each item (and, for UNNEST, each element
// expansion) can see every column produced by the items before it.
func (b *Builder) buildFrom(s *scope, from []ast.TableExpr) (*outScope, error) {
	acc := newEmptyFromScope()
	for _, item := range from {
		pushed := s.push()
		pushed.node, pushed.schema = acc.node, acc.schema
		next, err := b.buildTableExpr(pushed, acc, item)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func (b *Builder) buildTableExpr(s *scope, acc *outScope, te ast.TableExpr) (*outScope, error) {
	switch n := te.(type) {
	case *ast.AliasedTableExpr:
		return b.buildAliasedTableExpr(s, acc, n)
	case *ast.JoinTableExpr:
		return b.buildJoinTableExpr(s, n)
	case *ast.ParenTableExpr:
		return b.buildTableExpr(s, acc, n.Expr)
	default:
		return nil, errUnsupported("table expression")
	}
}

func (b *Builder) buildAliasedTableExpr(s *scope, acc *outScope, n *ast.AliasedTableExpr) (*outScope, error) {
	if u, ok := n.Expr.(*ast.UnnestExpr); ok {
		return b.buildUnnestFrom(s, acc, u, n.As)
	}

	built, err := b.buildSimpleTableExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	if n.As != "" {
		built.schema = renameTable(built.schema, n.As)
	}

	if isEmptyValuesNode(acc.node) {
		return built, nil
	}
	combined := acc.schema.Concat(built.schema)
	return &outScope{node: plan.NewCrossJoin(acc.node, built.node), schema: combined}, nil
}

func (b *Builder) buildSimpleTableExpr(s *scope, e ast.SimpleTableExpr) (*outScope, error) {
	switch n := e.(type) {
	case ast.TableName:
		if n.Qualifier == "" {
			if cte, ok := s.lookupCte(n.Name); ok {
				return &outScope{node: plan.NewCteRef(n.Name, cte.schema), schema: cte.schema}, nil
			}
		}
		table, dbName, err := b.resolveTable(n.Qualifier, n.Name)
		if err != nil {
			return nil, err
		}
		scan := plan.NewResolvedTableScan(table)
		scan.DatabaseName = dbName
		return &outScope{node: scan, schema: scan.Schema()}, nil
	case *ast.Subquery:
		inner := s.push()
		out, err := b.buildSelectStatement(inner, n.Select)
		if err != nil {
			return nil, err
		}
		return &outScope{node: out.node, schema: out.schema}, nil
	default:
		return nil, errUnsupported("table source")
	}
}

// buildUnnestFrom expands `UNNEST(expr) [WITH OFFSET] [AS alias]` as a
// per-row lateral fan-out: the accumulated FROM node becomes Unnest's
// child directly rather than the right side of a join, since Unnest.Schema
// already reports its own output schema (accumulated columns plus the new
// element/offset columns) computed here by the caller.
func (b *Builder) buildUnnestFrom(s *scope, acc *outScope, u *ast.UnnestExpr, alias string) (*outScope, error) {
	arr, err := b.buildExpr(s, u.Expr)
	if err != nil {
		return nil, err
	}
	elemType := types.DataType{}
	if et := arr.Type().Elem; et != nil {
		elemType = *et
	}
	elemName := alias
	if elemName == "" {
		elemName = defaultColumnName(u.Expr)
	}
	outputSchema := acc.schema.Concat(sql.Schema{{Name: elemName, Type: elemType, Nullable: true}})
	if u.WithOffset {
		offsetName := u.OffsetAlias
		if offsetName == "" {
			offsetName = "offset"
		}
		outputSchema = outputSchema.Concat(sql.Schema{{Name: offsetName, Type: types.Int64}})
	}
	node := plan.NewUnnest(arr, elemName, u.WithOffset, u.OffsetAlias, acc.node, outputSchema)
	return &outScope{node: node, schema: outputSchema}, nil
}

func joinTypeOf(jt ast.JoinType) plan.JoinType {
	switch jt {
	case ast.JoinLeft:
		return plan.JoinLeft
	case ast.JoinRight:
		return plan.JoinRight
	case ast.JoinFull:
		return plan.JoinFull
	default:
		return plan.JoinInner
	}
}

func (b *Builder) buildJoinTableExpr(s *scope, n *ast.JoinTableExpr) (*outScope, error) {
	left, err := b.buildTableExpr(s, newEmptyFromScope(), n.Left)
	if err != nil {
		return nil, err
	}
	rightScope := s.push()
	rightScope.node, rightScope.schema = left.node, left.schema
	right, err := b.buildTableExpr(rightScope, newEmptyFromScope(), n.Right)
	if err != nil {
		return nil, err
	}

	combinedSchema := left.schema.Concat(right.schema)

	if n.Join == ast.JoinCross {
		return &outScope{node: plan.NewCrossJoin(left.node, right.node), schema: combinedSchema}, nil
	}

	condScope := s.push()
	condScope.node, condScope.schema = nil, combinedSchema

	var cond sql.Expression
	if n.Condition != nil {
		cond, err = b.buildExpr(condScope, n.Condition)
		if err != nil {
			return nil, err
		}
	} else if len(n.Using) > 0 {
		cond, err = buildUsingCondition(left.schema, right.schema, n.Using)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, errInvalid("JOIN requires an ON condition or USING clause")
	}

	jt := joinTypeOf(n.Join)
	if leftKeys, rightKeys, ok := splitEquiJoin(cond, len(left.schema)); ok {
		return &outScope{node: plan.NewHashJoin(jt, left.node, right.node, leftKeys, rightKeys), schema: combinedSchema}, nil
	}
	return &outScope{node: plan.NewNestedLoopJoin(jt, left.node, right.node, cond), schema: combinedSchema}, nil
}

// buildUsingCondition desugars `JOIN ... USING (cols)` into an AND-chain of
// equality comparisons between the named columns on each side.
func buildUsingCondition(left, right sql.Schema, cols []string) (sql.Expression, error) {
	var cond sql.Expression
	for _, col := range cols {
		li, _, ok := left.IndexOf("", col)
		if !ok {
			return nil, errColumnNotFound(col)
		}
		ri, _, ok := right.IndexOf("", col)
		if !ok {
			return nil, errColumnNotFound(col)
		}
		lf, rf := left[li], right[ri]
		eq := expression.NewBinaryOp(types.OpEq,
			expression.NewGetFieldWithTable(li, lf.Type, lf.Table, lf.Name, lf.Nullable),
			expression.NewGetFieldWithTable(len(left)+ri, rf.Type, rf.Table, rf.Name, rf.Nullable),
			types.Bool)
		if cond == nil {
			cond = eq
		} else {
			cond = expression.NewBinaryOp(types.OpAnd, cond, eq, types.Bool)
		}
	}
	return cond, nil
}

// splitEquiJoin decomposes a top-level AND-chain of pure equi-join
// conjuncts (one GetField from the left side, one from the right) into
// HashJoin's key lists. It bails (ok=false) the moment any conjunct doesn't
// fit that shape, leaving the whole condition for a NestedLoopJoin.
func splitEquiJoin(cond sql.Expression, leftLen int) (leftKeys, rightKeys []sql.Expression, ok bool) {
	var conjuncts []sql.Expression
	var walk func(sql.Expression)
	walk = func(e sql.Expression) {
		if bo, isBin := e.(*expression.BinaryOp); isBin && bo.Op() == types.OpAnd {
			children := bo.Children()
			walk(children[0])
			walk(children[1])
			return
		}
		conjuncts = append(conjuncts, e)
	}
	walk(cond)

	for _, c := range conjuncts {
		bo, isBin := c.(*expression.BinaryOp)
		if !isBin || bo.Op() != types.OpEq {
			return nil, nil, false
		}
		children := bo.Children()
		l, lok := children[0].(*expression.GetField)
		r, rok := children[1].(*expression.GetField)
		if !lok || !rok {
			return nil, nil, false
		}
		switch {
		case l.Index() < leftLen && r.Index() >= leftLen:
			leftKeys = append(leftKeys, l)
			rightKeys = append(rightKeys, shiftGetField(r, leftLen))
		case r.Index() < leftLen && l.Index() >= leftLen:
			leftKeys = append(leftKeys, r)
			rightKeys = append(rightKeys, shiftGetField(l, leftLen))
		default:
			return nil, nil, false
		}
	}
	return leftKeys, rightKeys, len(leftKeys) > 0
}

// shiftGetField rebases a GetField indexed into the combined join schema
// down to an index into the right child's own schema, which is what
// HashJoin evaluates RightKeys against.
func shiftGetField(f *expression.GetField, leftLen int) sql.Expression {
	return expression.NewGetFieldWithTable(f.Index()-leftLen, f.Type(), f.Table(), f.Name(), f.Nullable())
}
