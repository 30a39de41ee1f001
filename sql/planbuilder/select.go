package planbuilder

import (
	"strconv"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
)

// outScope is the result of building one SELECT/set-operation level: the
// node it produced plus the schema an enclosing query sees it under (table
// aliases applied, `WITH name (cols)` column renames applied, etc).
type outScope struct {
	node   sql.Node
	schema sql.Schema
}

func (b *Builder) buildSelectStatement(s *scope, stmt ast.SelectStatement) (*outScope, error) {
	switch n := stmt.(type) {
	case *ast.Select:
		return b.buildSelect(s, n)
	case *ast.SetOp:
		return b.buildSetOp(s, n)
	default:
		return nil, errUnsupported("select statement")
	}
}

func (b *Builder) buildSetOp(s *scope, n *ast.SetOp) (*outScope, error) {
	left, err := b.buildSelectStatement(s, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.buildSelectStatement(s, n.Right)
	if err != nil {
		return nil, err
	}
	var node sql.Node
	switch strings.ToLower(n.Op) {
	case "union":
		node = plan.NewUnion(n.All, left.node, right.node)
	case "intersect":
		node = plan.NewIntersect(n.All, left.node, right.node)
	case "except":
		node = plan.NewExcept(n.All, left.node, right.node)
	default:
		return nil, errUnsupported("set operator " + n.Op)
	}
	return &outScope{node: node, schema: node.Schema()}, nil
}

// buildSelect builds one `SELECT ... FROM ... WHERE ... GROUP BY ...
// HAVING ... QUALIFY ... ORDER BY ... LIMIT` statement. Sort/TopN are
// placed below the final Project (the teacher's own `analyzer` rule for
// ORDER BY pushdown works the same way), which lets ORDER BY/QUALIFY freely
// reference either an input column or a SELECT-list alias without a second
// resolution pass over the projected row; a Limit/Offset wraps the Project.
func (b *Builder) buildSelect(s *scope, n *ast.Select) (*outScope, error) {
	cteScope := s.push()
	var cteDefs []plan.CteDef
	if n.With != nil {
		defs, err := b.buildWith(cteScope, n.With)
		if err != nil {
			return nil, err
		}
		cteDefs = defs
	}

	fromScope, err := b.buildFrom(cteScope, n.From)
	if err != nil {
		return nil, err
	}

	rowScope := cteScope.push()
	rowScope.node, rowScope.schema = fromScope.node, fromScope.schema

	node := fromScope.node
	if n.Where != nil {
		pred, err := b.buildExpr(rowScope, n.Where.Expr)
		if err != nil {
			return nil, err
		}
		node = plan.NewFilter(pred, node)
	}

	selectCols, err := b.expandSelectExprs(rowScope, n.SelectExprs)
	if err != nil {
		return nil, err
	}

	node, postScope, selectCols, err := b.buildAggregation(rowScope, node, n, selectCols)
	if err != nil {
		return nil, err
	}

	node, postScope, selectCols, err = b.extractWindowFuncs(postScope, node, selectCols)
	if err != nil {
		return nil, err
	}

	if n.Qualify != nil {
		qualPred, err := b.resolveOutputExpr(postScope, selectCols, n.Qualify.Expr)
		if err != nil {
			return nil, err
		}
		node = plan.NewQualify(qualPred, node)
	}

	if len(n.OrderBy) > 0 {
		keys, err := b.buildResultOrderBy(postScope, selectCols, n.OrderBy)
		if err != nil {
			return nil, err
		}
		if n.Limit != nil && n.Limit.Offset == nil {
			if lim, ok := constIntLiteral(n.Limit.Rowcount); ok {
				node = plan.NewTopN(int(lim), keys, node)
				node = b.applyProjection(node, selectCols, n.Distinct)
				node = wrapCtes(node, cteDefs)
				return &outScope{node: node, schema: node.Schema()}, nil
			}
		}
		node = plan.NewSort(keys, node)
	}

	node = b.applyProjection(node, selectCols, n.Distinct)

	if n.Limit != nil {
		rc, err := b.evalIntExpr(postScope, n.Limit.Rowcount)
		if err != nil {
			return nil, err
		}
		limNode := plan.NewLimit(rc, node)
		if n.Limit.Offset != nil {
			off, err := b.evalIntExpr(postScope, n.Limit.Offset)
			if err != nil {
				return nil, err
			}
			limNode = limNode.WithOffset(off)
		}
		node = limNode
	}

	node = wrapCtes(node, cteDefs)
	return &outScope{node: node, schema: node.Schema()}, nil
}

// applyProjection builds the final Project (and optional Distinct) over
// node from selectCols.
func (b *Builder) applyProjection(node sql.Node, selectCols []selectColumn, distinct bool) sql.Node {
	cols := make([]plan.ProjectColumn, len(selectCols))
	for i, c := range selectCols {
		cols[i] = plan.ProjectColumn{Expr: c.expr, Field: sql.Field{Name: c.name, Type: c.expr.Type(), Nullable: c.expr.Nullable()}}
	}
	node = plan.NewProject(cols, node)
	if distinct {
		node = plan.NewDistinct(node)
	}
	return node
}

func wrapCtes(node sql.Node, cteDefs []plan.CteDef) sql.Node {
	if len(cteDefs) > 0 {
		return plan.NewWithCte(cteDefs, node)
	}
	return node
}

func constIntLiteral(e ast.Expr) (int64, bool) {
	lit, ok := e.(ast.IntVal)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(string(lit), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (b *Builder) evalIntExpr(s *scope, e ast.Expr) (int64, error) {
	expr, err := b.buildExpr(s, e)
	if err != nil {
		return 0, err
	}
	lit, ok := expr.(*expression.Literal)
	if !ok {
		return 0, errInvalid("expected a constant integer")
	}
	v, err := lit.Eval(sql.NewEmptyContext(), sql.Record{})
	if err != nil {
		return 0, err
	}
	return mustInt64(v), nil
}

// buildWith builds each CTE binding in order, registering it into s so later
// bindings (and the main query) can reference earlier ones, and returns the
// plan.CteDef list the final WithCte node wraps around the query.
func (b *Builder) buildWith(s *scope, w *ast.With) ([]plan.CteDef, error) {
	defs := make([]plan.CteDef, 0, len(w.Ctes))
	for _, def := range w.Ctes {
		if def.Recursive {
			setOp, ok := def.Stmt.(*ast.SetOp)
			if !ok {
				return nil, errInvalid("WITH RECURSIVE %s must be a UNION of an anchor and a recursive branch", def.Name)
			}
			anchorScope := s.push()
			anchor, err := b.buildSelectStatement(anchorScope, setOp.Left)
			if err != nil {
				return nil, err
			}
			schema := applyColumnAliases(anchor.schema, def.Columns, def.Name)
			s.defineCte(&cteBinding{name: def.Name, schema: schema, recursive: true})
			recScope := s.push()
			rec, err := b.buildSelectStatement(recScope, setOp.Right)
			if err != nil {
				return nil, err
			}
			if !strings.EqualFold(setOp.Op, "union") {
				return nil, errUnsupported("WITH RECURSIVE branch operator " + setOp.Op)
			}
			combined := plan.NewUnion(setOp.All, anchor.node, rec.node)
			defs = append(defs, plan.CteDef{Name: def.Name, Plan: combined, Recursive: true})
		} else {
			inner := s.push()
			built, err := b.buildSelectStatement(inner, def.Stmt)
			if err != nil {
				return nil, err
			}
			schema := applyColumnAliases(built.schema, def.Columns, def.Name)
			s.defineCte(&cteBinding{name: def.Name, schema: schema})
			defs = append(defs, plan.CteDef{Name: def.Name, Plan: built.node})
		}
	}
	return defs, nil
}

// applyColumnAliases renames schema to the WITH clause's explicit column
// list (when given) and stamps every field's Table so `FROM name` and
// `name.col` resolve against it.
func applyColumnAliases(schema sql.Schema, names []string, table string) sql.Schema {
	out := make(sql.Schema, len(schema))
	for i, f := range schema {
		name := f.Name
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		out[i] = sql.Field{Name: name, Type: f.Type, Nullable: f.Nullable, Table: table}
	}
	return out
}

func renameTable(schema sql.Schema, table string) sql.Schema {
	out := make(sql.Schema, len(schema))
	for i, f := range schema {
		out[i] = sql.Field{Name: f.Name, Type: f.Type, Nullable: f.Nullable, Table: table}
	}
	return out
}
