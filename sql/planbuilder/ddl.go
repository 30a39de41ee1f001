package planbuilder

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/plan"
)

func (b *Builder) buildCreateTable(n *ast.CreateTable) (sql.Node, error) {
	schema := make(sql.Schema, len(n.Columns))
	for i, col := range n.Columns {
		dt, err := parseTypeName(col.Type)
		if err != nil {
			return nil, err
		}
		schema[i] = sql.Field{Name: col.Name, Type: dt, Nullable: col.Nullable}
	}
	db, err := b.resolveDatabase(n.Name.Qualifier)
	if err != nil {
		return nil, err
	}
	return plan.NewCreateTable(db.Name(), n.Name.Name, schema, n.IfNotExists), nil
}

func (b *Builder) buildCreateView(s *scope, n *ast.CreateView) (sql.Node, error) {
	inner := s.push()
	out, err := b.buildSelectStatement(inner, n.Select)
	if err != nil {
		return nil, err
	}
	db, err := b.resolveDatabase(n.Name.Qualifier)
	if err != nil {
		return nil, err
	}
	return plan.NewCreateView(db.Name(), n.Name.Name, out.node, n.OrReplace), nil
}

func (b *Builder) buildDropTable(n *ast.DropTable) (sql.Node, error) {
	db, err := b.resolveDatabase(n.Name.Qualifier)
	if err != nil {
		return nil, err
	}
	return plan.NewDropTable(db.Name(), n.Name.Name, n.IfExists), nil
}
