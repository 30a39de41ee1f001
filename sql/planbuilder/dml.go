package planbuilder

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

func (b *Builder) resolveTargetScan(s *scope, t ast.TableName) (*plan.TableScan, error) {
	table, dbName, err := b.resolveTable(t.Qualifier, t.Name)
	if err != nil {
		return nil, err
	}
	scan := plan.NewResolvedTableScan(table)
	scan.DatabaseName = dbName
	return scan, nil
}

func (b *Builder) buildInsert(s *scope, n *ast.Insert) (sql.Node, error) {
	scan, err := b.resolveTargetScan(s, n.Table)
	if err != nil {
		return nil, err
	}
	tableSchema := scan.Schema()
	targetIdx, err := columnTargetIndices(tableSchema, n.Columns)
	if err != nil {
		return nil, err
	}

	var source sql.Node
	if n.Select != nil {
		sel := s.push()
		out, serr := b.buildSelectStatement(sel, n.Select)
		if serr != nil {
			return nil, serr
		}
		source, err = remapToTableWidth(out.node, out.schema, tableSchema, targetIdx)
		if err != nil {
			return nil, err
		}
	} else {
		rows := make([][]sql.Expression, len(n.Rows))
		for i, astRow := range n.Rows {
			row := make([]sql.Expression, len(tableSchema))
			for j, f := range tableSchema {
				row[j] = expression.NewLiteral(types.Null, f.Type)
			}
			for j, e := range astRow {
				built, berr := b.buildExpr(s, e)
				if berr != nil {
					return nil, berr
				}
				row[targetIdx[j]] = built
			}
			rows[i] = row
		}
		source = plan.NewValues(tableSchema, rows)
	}
	return plan.NewInsert(scan, source), nil
}

// columnTargetIndices maps an INSERT's (possibly partial, possibly
// reordered) column list onto positions in the table's own schema; an
// empty column list means "all columns, in table order".
func columnTargetIndices(tableSchema sql.Schema, columns []string) ([]int, error) {
	if len(columns) == 0 {
		idx := make([]int, len(tableSchema))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, len(columns))
	for i, name := range columns {
		pos, _, ok := tableSchema.IndexOf("", name)
		if !ok {
			return nil, errColumnNotFound(name)
		}
		idx[i] = pos
	}
	return idx, nil
}

// remapToTableWidth wraps an INSERT ... SELECT source in a Project that
// places each selected column at its target table position and fills any
// column the INSERT's column list omitted with NULL.
func remapToTableWidth(node sql.Node, srcSchema, tableSchema sql.Schema, targetIdx []int) (sql.Node, error) {
	full := make([]sql.Expression, len(tableSchema))
	for i, f := range tableSchema {
		full[i] = expression.NewLiteral(types.Null, f.Type)
	}
	for i, t := range targetIdx {
		full[t] = expression.NewGetFieldWithTable(i, srcSchema[i].Type, srcSchema[i].Table, srcSchema[i].Name, srcSchema[i].Nullable)
	}
	cols := make([]plan.ProjectColumn, len(full))
	for i, e := range full {
		cols[i] = plan.ProjectColumn{Expr: e, Field: sql.Field{Name: tableSchema[i].Name, Type: e.Type(), Nullable: e.Nullable()}}
	}
	return plan.NewProject(cols, node), nil
}

func (b *Builder) buildUpdate(s *scope, n *ast.Update) (sql.Node, error) {
	scan, err := b.resolveTargetScan(s, n.Table)
	if err != nil {
		return nil, err
	}
	rowScope := s.push()
	rowScope.node, rowScope.schema = scan, scan.Schema()

	sets := make([]plan.UpdateSet, len(n.Exprs))
	for i, ue := range n.Exprs {
		idx, _, ok := rowScope.schema.IndexOf("", ue.Name)
		if !ok {
			return nil, errColumnNotFound(ue.Name)
		}
		val, err := b.buildExpr(rowScope, ue.Expr)
		if err != nil {
			return nil, err
		}
		sets[i] = plan.UpdateSet{ColumnIndex: idx, Expr: val}
	}

	var child sql.Node = scan
	if n.Where != nil {
		pred, err := b.buildExpr(rowScope, n.Where.Expr)
		if err != nil {
			return nil, err
		}
		child = plan.NewFilter(pred, scan)
	}
	return plan.NewUpdate(scan, child, sets), nil
}

func (b *Builder) buildDelete(s *scope, n *ast.Delete) (sql.Node, error) {
	scan, err := b.resolveTargetScan(s, n.Table)
	if err != nil {
		return nil, err
	}
	var child sql.Node = scan
	if n.Where != nil {
		rowScope := s.push()
		rowScope.node, rowScope.schema = scan, scan.Schema()
		pred, err := b.buildExpr(rowScope, n.Where.Expr)
		if err != nil {
			return nil, err
		}
		child = plan.NewFilter(pred, scan)
	}
	return plan.NewDelete(scan, child), nil
}

func (b *Builder) buildMerge(s *scope, n *ast.Merge) (sql.Node, error) {
	scan, err := b.resolveTargetScan(s, n.Target)
	if err != nil {
		return nil, err
	}
	targetSchema := scan.Schema()

	srcScope := s.push()
	srcScope.node, srcScope.schema = scan, targetSchema
	source, err := b.buildTableExpr(srcScope, newEmptyFromScope(), n.Source)
	if err != nil {
		return nil, err
	}

	combined := targetSchema.Concat(source.schema)
	condScope := s.push()
	condScope.schema = combined
	on, err := b.buildExpr(condScope, n.On)
	if err != nil {
		return nil, err
	}

	actions := make([]plan.MergeAction, len(n.Whens))
	for i, w := range n.Whens {
		actionScope := s.push()
		actionScope.schema = combined

		var cond sql.Expression
		if w.Condition != nil {
			cond, err = b.buildExpr(actionScope, w.Condition)
			if err != nil {
				return nil, err
			}
		}

		var sets []plan.UpdateSet
		if w.UpdateExprs != nil {
			sets = make([]plan.UpdateSet, len(w.UpdateExprs))
			for j, ue := range w.UpdateExprs {
				idx, _, ok := targetSchema.IndexOf("", ue.Name)
				if !ok {
					return nil, errColumnNotFound(ue.Name)
				}
				val, verr := b.buildExpr(actionScope, ue.Expr)
				if verr != nil {
					return nil, verr
				}
				sets[j] = plan.UpdateSet{ColumnIndex: idx, Expr: val}
			}
		}

		var insertCols []int
		var insertExprs []sql.Expression
		if w.IsInsert {
			idx, ierr := columnTargetIndices(targetSchema, w.InsertCols)
			if ierr != nil {
				return nil, ierr
			}
			insertCols = idx
			insertExprs = make([]sql.Expression, len(w.InsertVals))
			for j, e := range w.InsertVals {
				ve, verr := b.buildExpr(actionScope, e)
				if verr != nil {
					return nil, verr
				}
				insertExprs[j] = ve
			}
		}

		actions[i] = plan.MergeAction{
			Matched:     w.Matched,
			ByTargetNot: !w.Matched && w.BySource,
			Condition:   cond,
			IsDelete:    w.IsDelete,
			IsInsert:    w.IsInsert,
			Sets:        sets,
			InsertCols:  insertCols,
			InsertExprs: insertExprs,
		}
	}

	return plan.NewMerge(scan, source.node, on, actions), nil
}
