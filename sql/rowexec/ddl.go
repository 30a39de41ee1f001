package rowexec

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
)

func execCreateTable(ctx *sql.Context, c *plan.CreateTable) (*sql.TableData, error) {
	db, err := resolveDatabase(ctx, c.DatabaseName)
	if err != nil {
		return nil, err
	}
	if _, ok := db.GetTable(c.TableName); ok {
		if c.IfNotExists {
			return sql.EmptyTableData(nil), nil
		}
		return nil, fmt.Errorf("rowexec: table %q already exists", c.TableName)
	}
	if _, err := db.CreateTable(c.TableName, c.TableSchema); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

func execCreateView(ctx *sql.Context, c *plan.CreateView) (*sql.TableData, error) {
	db, err := resolveDatabase(ctx, c.DatabaseName)
	if err != nil {
		return nil, err
	}
	if err := db.CreateView(c.ViewName, c.Definition, c.OrReplace); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

func execDropTable(ctx *sql.Context, d *plan.DropTable) (*sql.TableData, error) {
	db, err := resolveDatabase(ctx, d.DatabaseName)
	if err != nil {
		return nil, err
	}
	if _, ok := db.GetTable(d.TableName); !ok {
		if d.IfExists {
			return sql.EmptyTableData(nil), nil
		}
		return nil, fmt.Errorf("rowexec: table %q not found", d.TableName)
	}
	if err := db.DropTable(d.TableName); err != nil {
		return nil, err
	}
	return sql.EmptyTableData(nil), nil
}

// resolveDatabase looks up name in the session's catalog, falling back to
// the session's current database when name is empty (an unqualified
// CREATE/DROP TABLE statement).
func resolveDatabase(ctx *sql.Context, name string) (sql.Database, error) {
	if name == "" {
		name = ctx.Session.CurrentDatabase()
	}
	db, ok := ctx.Session.Catalog().GetDatabase(name)
	if !ok {
		return nil, fmt.Errorf("rowexec: database %q not found", name)
	}
	return db, nil
}
