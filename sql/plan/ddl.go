package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// CreateTable declares a new catalog table (§3 "CreateTable").
type CreateTable struct {
	DatabaseName string
	TableName    string
	TableSchema  sql.Schema
	IfNotExists  bool
}

func NewCreateTable(db, table string, schema sql.Schema, ifNotExists bool) *CreateTable {
	return &CreateTable{db, table, schema, ifNotExists}
}

func (c *CreateTable) Schema() sql.Schema   { return dmlResultSchema }
func (c *CreateTable) Children() []sql.Node { return nil }
func (c *CreateTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("CreateTable: expected 0 children, got %d", len(children))
	}
	return c, nil
}
func (c *CreateTable) Resolved() bool { return true }
func (c *CreateTable) String() string { return fmt.Sprintf("CreateTable(%s)", c.TableName) }

// CreateView registers a named query as a view (§3 "CreateView"). The core
// stores the defining plan; FROM-clause resolution does not look views up,
// so the stored plan is not scanned by name.
type CreateView struct {
	DatabaseName string
	ViewName     string
	Definition   sql.Node
	OrReplace    bool
}

func NewCreateView(db, name string, definition sql.Node, orReplace bool) *CreateView {
	return &CreateView{db, name, definition, orReplace}
}

func (c *CreateView) Schema() sql.Schema   { return dmlResultSchema }
func (c *CreateView) Children() []sql.Node { return []sql.Node{c.Definition} }
func (c *CreateView) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("CreateView: expected 1 child, got %d", len(children))
	}
	return &CreateView{c.DatabaseName, c.ViewName, children[0], c.OrReplace}, nil
}
func (c *CreateView) Resolved() bool { return c.Definition.Resolved() }
func (c *CreateView) String() string { return fmt.Sprintf("CreateView(%s)", c.ViewName) }

// DropTable removes a table from the catalog (§3 "DropTable").
type DropTable struct {
	DatabaseName string
	TableName    string
	IfExists     bool
}

func NewDropTable(db, table string, ifExists bool) *DropTable {
	return &DropTable{db, table, ifExists}
}

func (d *DropTable) Schema() sql.Schema   { return dmlResultSchema }
func (d *DropTable) Children() []sql.Node { return nil }
func (d *DropTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 0 {
		return nil, fmt.Errorf("DropTable: expected 0 children, got %d", len(children))
	}
	return d, nil
}
func (d *DropTable) Resolved() bool { return true }
func (d *DropTable) String() string { return fmt.Sprintf("DropTable(%s)", d.TableName) }
