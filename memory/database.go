package memory

import (
	"strings"
	"sync"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/sql"
)

// Database is a named, case-insensitive collection of Tables guarded by its
// own RWMutex, so writers on distinct tables never block on each other
// beyond the moment they touch the shared table map (§5 "Writers on distinct
// tables do not block each other").
type Database struct {
	name string

	mu     sync.RWMutex
	tables map[string]*Table
	views  map[string]sql.Node
}

var _ sql.Database = (*Database)(nil)

func NewDatabase(name string) *Database {
	return &Database{name: name, tables: make(map[string]*Table), views: make(map[string]sql.Node)}
}

func (d *Database) Name() string { return d.name }

func (d *Database) GetTable(name string) (sql.StoredTable, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tables[strings.ToLower(name)]
	return t, ok
}

func (d *Database) CreateTable(name string, schema sql.Schema) (sql.StoredTable, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.tables[key]; ok {
		return nil, tideerrors.ErrTableExists.New(name)
	}
	t := NewTable(name, schema)
	d.tables[key] = t
	return t, nil
}

func (d *Database) DropTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.tables[key]; !ok {
		return tideerrors.ErrTableNotFound.New(name)
	}
	delete(d.tables, key)
	return nil
}

func (d *Database) TableNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.tables))
	for _, t := range d.tables {
		out = append(out, t.Name())
	}
	return out
}

func (d *Database) GetView(name string) (sql.Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.views[strings.ToLower(name)]
	return n, ok
}

func (d *Database) CreateView(name string, definition sql.Node, orReplace bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.views[key]; ok && !orReplace {
		return tideerrors.ErrViewExists.New(name)
	}
	d.views[key] = definition
	return nil
}

func (d *Database) DropView(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := d.views[key]; !ok {
		return tideerrors.ErrViewNotFound.New(name)
	}
	delete(d.views, key)
	return nil
}
