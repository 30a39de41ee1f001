package planbuilder

import (
	"fmt"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/plan"
)

// Builder turns one ast.Statement into a logical sql.Node, resolving
// catalog-dependent names as it goes.
type Builder struct {
	Catalog     sql.Catalog
	CurrentDB   string
}

func NewBuilder(catalog sql.Catalog, currentDB string) *Builder {
	return &Builder{Catalog: catalog, CurrentDB: currentDB}
}

// Build is the package's entry point: it builds a top-level statement into
// a logical plan ready for the analyzer's rewrite passes (§4.3, §4.4).
func (b *Builder) Build(stmt ast.Statement) (sql.Node, error) {
	s := newScope(b, nil)
	return b.buildStatement(s, stmt)
}

func (b *Builder) buildStatement(s *scope, stmt ast.Statement) (sql.Node, error) {
	switch n := stmt.(type) {
	case ast.SelectStatement:
		out, err := b.buildSelectStatement(s, n)
		if err != nil {
			return nil, err
		}
		return out.node, nil
	case *ast.CreateTable:
		return b.buildCreateTable(n)
	case *ast.CreateView:
		return b.buildCreateView(s, n)
	case *ast.DropTable:
		return b.buildDropTable(n)
	case *ast.Insert:
		return b.buildInsert(s, n)
	case *ast.Update:
		return b.buildUpdate(s, n)
	case *ast.Delete:
		return b.buildDelete(s, n)
	case *ast.Merge:
		return b.buildMerge(s, n)
	case *ast.Block:
		return b.buildBlock(s, n)
	case *ast.If:
		return b.buildIf(s, n)
	case *ast.While:
		return b.buildWhile(s, n)
	case *ast.Loop:
		return b.buildLoop(s, n)
	case *ast.For:
		return b.buildFor(s, n)
	case *ast.Repeat:
		return b.buildRepeat(s, n)
	case *ast.TryCatch:
		return b.buildTryCatch(s, n)
	case *ast.Return:
		return b.buildReturn(s, n)
	case *ast.Break:
		return b.buildBreak(n)
	case *ast.Leave:
		return b.buildLeave(n)
	default:
		return nil, fmt.Errorf("planbuilder: unsupported statement %T", stmt)
	}
}

// resolveDatabase looks up a database by name, falling back to the
// builder's current database when name is empty.
func (b *Builder) resolveDatabase(name string) (sql.Database, error) {
	if name == "" {
		name = b.CurrentDB
	}
	db, ok := b.Catalog.GetDatabase(name)
	if !ok {
		return nil, tideerrors.ErrSchemaNotFound.New(name)
	}
	return db, nil
}

func (b *Builder) resolveTable(qualifier, name string) (sql.StoredTable, string, error) {
	db, err := b.resolveDatabase(qualifier)
	if err != nil {
		return nil, "", err
	}
	t, ok := db.GetTable(name)
	if !ok {
		return nil, "", tideerrors.ErrTableNotFound.New(name)
	}
	return t, db.Name(), nil
}

func (b *Builder) newGetField(idx int, f sql.Field, _ sql.Node) *expression.GetField {
	return expression.NewGetFieldWithTable(idx, f.Type, f.Table, f.Name, f.Nullable)
}

func (b *Builder) newOuterColumn(idx int, f sql.Field) *expression.OuterColumn {
	return expression.NewOuterColumn(idx, f.Type, f.Table, f.Name, f.Nullable)
}

func tableScanSchema(ts *plan.TableScan) sql.Schema { return ts.Schema() }
