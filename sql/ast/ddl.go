package ast

// ColumnDef is one column of a CREATE TABLE column list.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// CreateTable is `CREATE TABLE [IF NOT EXISTS] name (cols...)`.
type CreateTable struct {
	Name        TableName
	Columns     []*ColumnDef
	IfNotExists bool
}

func (*CreateTable) iStatement() {}

// CreateView is `CREATE [OR REPLACE] VIEW name AS select`.
type CreateView struct {
	Name      TableName
	Select    SelectStatement
	OrReplace bool
}

func (*CreateView) iStatement() {}

// DropTable is `DROP TABLE [IF EXISTS] name`.
type DropTable struct {
	Name     TableName
	IfExists bool
}

func (*DropTable) iStatement() {}
