package sql

import (
	stdctx "context"
	"sync"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/types"
)

// UserFunction is a session-registered scalar or table function body; the
// expression package resolves calls against it when no builtin matches.
type UserFunction struct {
	Name       string
	Params     []string
	ParamTypes []types.DataType
	ReturnType types.DataType
	Body       Expression
}

// Transaction brackets multiple statements into an atomic unit against the
// catalog (§5 "BeginTransaction/Commit/Rollback... bracket multiple
// statements into an atomic unit"). It holds a snapshot of every table it has
// touched so Rollback can restore them.
type Transaction struct {
	mu       sync.Mutex
	snapshot map[string]*TableData // "db.table" -> pre-transaction snapshot
}

func newTransaction() *Transaction {
	return &Transaction{snapshot: make(map[string]*TableData)}
}

func (t *Transaction) recordIfAbsent(key string, data *TableData) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.snapshot[key]; !ok {
		t.snapshot[key] = data
	}
}

// Session binds a catalog, variables, user functions, and transaction state
// (§4.6). Variables and user functions are session-local; the catalog is
// shared.
type Session struct {
	id      uint32
	catalog Catalog

	mu       sync.RWMutex
	vars     map[string]types.Value
	sysVars  map[string]types.Value
	udfs     map[string]*UserFunction
	database string
	txn      *Transaction

	// MaxRecursionDepth bounds recursive CTE iteration (§4.5).
	MaxRecursionDepth int
	// Parallelism caps internal thread-pool fan-out for hash aggregation
	// and hash joins (§5).
	Parallelism int

	// ExecPlan is wired in by the engine at construction time (see
	// Context.ExecPlan) so subquery-bearing expressions can execute their
	// embedded plan without sql/expression importing sql/rowexec.
	ExecPlan func(ctx *Context, n Node) (*TableData, error)

	// Build is wired in by the engine at construction time: it turns a
	// parsed ast.Statement into an optimized logical plan (planbuilder +
	// analyzer), kept as an injected closure for the same reason as
	// ExecPlan — sql/planbuilder and sql/analyzer both import this
	// package, so this package can never import them back.
	Build func(s *Session, stmt ast.Statement) (Node, error)
}

func NewSession(catalog Catalog) *Session {
	return &Session{
		id:                nextSessionID(),
		catalog:           catalog,
		vars:              make(map[string]types.Value),
		sysVars:           defaultSystemVariables(),
		udfs:              make(map[string]*UserFunction),
		MaxRecursionDepth: 1000,
		Parallelism:       4,
	}
}

func defaultSystemVariables() map[string]types.Value {
	return map[string]types.Value{
		"max_recursion_depth":  types.NewInt64(1000),
		"parallel_aggregation": types.NewBool(true),
	}
}

func (s *Session) ID() uint32     { return s.id }
func (s *Session) Catalog() Catalog { return s.catalog }

func (s *Session) CurrentDatabase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.database
}

func (s *Session) SetCurrentDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.database = name
}

func (s *Session) SetVariable(name string, v types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = v
}

func (s *Session) GetVariable(name string) (types.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	v, ok := s.sysVars[name]
	return v, ok
}

func (s *Session) RegisterFunction(fn *UserFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.udfs[fn.Name] = fn
}

func (s *Session) LookupFunction(name string) (*UserFunction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.udfs[name]
	return fn, ok
}

// BeginTransaction starts an atomic unit; later statements in this session
// run under it until Commit/Rollback.
func (s *Session) BeginTransaction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txn != nil {
		return tideerrors.ErrTxnAlreadyActive.New()
	}
	s.txn = newTransaction()
	return nil
}

func (s *Session) ActiveTransaction() (*Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txn, s.txn != nil
}

func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txn == nil {
		return tideerrors.ErrNoActiveTxn.New()
	}
	s.txn = nil
	return nil
}

func (s *Session) Rollback(restore func(key string, data *TableData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txn == nil {
		return tideerrors.ErrNoActiveTxn.New()
	}
	for key, data := range s.txn.snapshot {
		restore(key, data)
	}
	s.txn = nil
	return nil
}

// Execute realizes §6's `Session::execute_sql(text) -> Table` contract:
// build stmt into an optimized logical plan, then run it to completion.
// text itself is never parsed here — stmt is the already-parsed AST the
// external producer handed the engine (§1 "an external SQL-AST producer is
// consumed"; see sql/ast's package doc). It derives its own query-scoped
// Context; callers that need to share cancellation with an existing
// Context (nested/programmatic execution) should call ExecuteContext
// directly instead.
func (s *Session) Execute(stmt ast.Statement) (*TableData, error) {
	ctx, cancel := NewContext(stdctx.Background(), s)
	defer cancel()
	return s.ExecuteContext(ctx, stmt)
}

// ExecuteContext is Execute with an explicit, caller-owned Context, used by
// Block/For/control-flow statements that need every nested Execute to share
// one cancellation token and query id.
func (s *Session) ExecuteContext(ctx *Context, stmt ast.Statement) (*TableData, error) {
	if s.Build == nil || s.ExecPlan == nil {
		return nil, tideerrors.ErrInternal.New("session not wired to an engine (Build/ExecPlan unset)")
	}
	plan, err := s.Build(s, stmt)
	if err != nil {
		return nil, err
	}
	return s.ExecPlan(ctx, plan)
}
