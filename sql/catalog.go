package sql

// StoredTable is a catalog-resident table: a durable name bound to mutable
// columnar storage, implemented by memory.Table. DML and DDL operate through
// this interface; the physical executor only ever sees the read-only
// TableData snapshots it returns.
type StoredTable interface {
	Name() string
	Schema() Schema

	// Snapshot returns a point-in-time, COW-safe read view (§5: "readers
	// already holding a reference observe a stable snapshot for the
	// duration of their query").
	Snapshot() *TableData

	// Insert appends rows under the table's own write lock.
	Insert(ctx *Context, rows []Row) error
	// Replace swaps the table's entire contents (used by Update/Delete,
	// which compute a new TableData and install it atomically).
	Replace(ctx *Context, data *TableData) error
}

// Database is a named collection of tables and views (§4.6 "a catalog
// (named tables and views)"). CreateView stores only the plan, never a
// materialized result. The planner resolves FROM names through GetTable
// only, so a stored view is not readable by name in a query.
type Database interface {
	Name() string
	GetTable(name string) (StoredTable, bool)
	CreateTable(name string, schema Schema) (StoredTable, error)
	DropTable(name string) error
	TableNames() []string

	GetView(name string) (Node, bool)
	CreateView(name string, definition Node, orReplace bool) error
	DropView(name string) error
}

// Catalog is the engine-wide, shared registry of databases. Reads acquire a
// shared lock for the duration of plan construction; writes (DDL/DML commit)
// acquire an exclusive lock only for the commit moment (§5).
type Catalog interface {
	GetDatabase(name string) (Database, bool)
	CreateDatabase(name string) (Database, error)
	DropDatabase(name string) error
	DatabaseNames() []string
}
