// Package memory is the in-memory catalog: Provider (Catalog), Database, and
// Table implementations backing the engine's session state (§4.6, §5).
package memory

import (
	"sync"

	"github.com/tidesql/tidesql/sql"
)

// Table is a catalog-resident, mutable columnar table. Readers take a
// Snapshot under a brief read lock; writers install a whole new TableData
// under a brief write lock, so in-flight readers keep observing their
// original snapshot for the duration of their query (§5 "Individual Tables
// inside the catalog are cloned or copy-on-write at write time").
type Table struct {
	name string

	mu   sync.RWMutex
	data *sql.TableData
}

var _ sql.StoredTable = (*Table)(nil)

func NewTable(name string, schema sql.Schema) *Table {
	return &Table{name: name, data: sql.EmptyTableData(schema)}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Schema() sql.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data.Schema()
}

func (t *Table) Snapshot() *sql.TableData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data
}

// Insert appends rows under the table's write lock. Because TableData is
// otherwise treated as immutable once published, it clones before mutating
// so any reader holding the previous Snapshot is unaffected.
func (t *Table) Insert(ctx *sql.Context, rows []sql.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := t.data.Clone()
	for _, r := range rows {
		if err := next.AppendRow(r); err != nil {
			return err
		}
	}
	t.data = next
	return nil
}

// Replace installs data as the table's entire new contents; used by Update
// and Delete, which compute the new TableData off to the side and then
// publish it atomically.
func (t *Table) Replace(ctx *sql.Context, data *sql.TableData) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = data
	return nil
}
