package memory

import (
	"strings"
	"sync"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/sql"
)

// Provider is the engine-wide Catalog: a shared, RWMutex-guarded registry of
// Databases. One Provider is created per Engine and handed to every Session
// (§4.6 "the catalog is shared under a reader-writer discipline").
type Provider struct {
	mu  sync.RWMutex
	dbs map[string]*Database
}

var _ sql.Catalog = (*Provider)(nil)

func NewProvider(dbs ...*Database) *Provider {
	p := &Provider{dbs: make(map[string]*Database)}
	for _, db := range dbs {
		p.dbs[strings.ToLower(db.Name())] = db
	}
	return p
}

func (p *Provider) GetDatabase(name string) (sql.Database, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	db, ok := p.dbs[strings.ToLower(name)]
	return db, ok
}

func (p *Provider) CreateDatabase(name string) (sql.Database, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := p.dbs[key]; ok {
		return nil, tideerrors.ErrDatabaseExists.New(name)
	}
	db := NewDatabase(name)
	p.dbs[key] = db
	return db, nil
}

func (p *Provider) DropDatabase(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := p.dbs[key]; !ok {
		return tideerrors.ErrSchemaNotFound.New(name)
	}
	delete(p.dbs, key)
	return nil
}

func (p *Provider) DatabaseNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.dbs))
	for _, db := range p.dbs {
		out = append(out, db.Name())
	}
	return out
}
