// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqle is the root of tidesql: it wires the logical planner
// (sql/planbuilder), the optimizer (sql/analyzer) and the physical executor
// (sql/rowexec) together behind the programmatic contract of §6
// (`Engine::new`, `Engine::create_session`, `Session::execute_sql`). Every
// other package in this module only ever sees the sql.Context.ExecPlan/
// sql.Session.Build injection points; this is the one place all three
// layers are allowed to know about each other, which keeps sql/planbuilder,
// sql/analyzer and sql/rowexec free of import cycles back into sql.
package sqle

import (
	"sync"

	"github.com/pkg/errors"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/memory"
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/analyzer"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/planbuilder"
	"github.com/tidesql/tidesql/sql/rowexec"
)

// Config tunes an Engine at construction time, mirroring the teacher's own
// Config shape at the concerns this module actually carries: this module
// has no network surface or accounts table, so only the read-only flag and
// the per-session defaults survive from the teacher's broader Config.
type Config struct {
	// IsReadOnly rejects every Insert/Update/Delete/Merge/CreateTable/
	// CreateView/DropTable statement up front (§5).
	IsReadOnly bool
	// MaxRecursionDepth seeds every session's recursive-CTE iteration cap
	// (§4.5); zero keeps sql.NewSession's own default (1000).
	MaxRecursionDepth int
	// Parallelism seeds every session's hash-aggregation/hash-join
	// fan-out cap (§5); zero keeps sql.NewSession's own default (4).
	Parallelism int
}

// Engine owns the shared catalog every Session reads and writes through
// (§4.6 "the catalog is shared"), plus the Config every Session it creates
// inherits its defaults from.
type Engine struct {
	mu      sync.RWMutex
	catalog *memory.Provider
	cfg     Config

	readOnly bool
}

// New constructs an Engine over a fresh, empty in-memory catalog (§6
// "Engine::new"). Callers get at the catalog afterward through
// Engine.CreateDatabase, never by reaching into memory.Provider directly.
func New(cfg Config) *Engine {
	return &Engine{
		catalog:  memory.NewProvider(),
		cfg:      cfg,
		readOnly: cfg.IsReadOnly,
	}
}

// NewDefault is New with a zero Config, matching the teacher's own
// `NewDefault(provider)` convenience constructor.
func NewDefault() *Engine {
	return New(Config{})
}

// CreateDatabase adds a named database to the engine's shared catalog,
// returning ErrDatabaseExists if one by that name is already registered.
func (e *Engine) CreateDatabase(name string) (sql.Database, error) {
	return e.catalog.CreateDatabase(name)
}

// Catalog exposes the engine's shared sql.Catalog, for callers that need to
// inspect or seed it (tests, enginetest fixtures) without a full session.
func (e *Engine) Catalog() sql.Catalog { return e.catalog }

// CreateSession realizes §6's `Engine::create_session() -> Session`: a
// fresh sql.Session bound to this engine's shared catalog, with Build and
// ExecPlan wired so Session.Execute/ExecuteContext work end to end.
func (e *Engine) CreateSession(currentDatabase string) *sql.Session {
	s := sql.NewSession(e.catalog)
	s.SetCurrentDatabase(currentDatabase)
	if e.cfg.MaxRecursionDepth > 0 {
		s.MaxRecursionDepth = e.cfg.MaxRecursionDepth
	}
	if e.cfg.Parallelism > 0 {
		s.Parallelism = e.cfg.Parallelism
	}
	s.ExecPlan = rowexec.Exec
	s.Build = e.build
	return s
}

// build runs the Build half of the §6 execute_sql pipeline: planbuilder
// resolves stmt's names against s's catalog and current database, the
// analyzer's fixed-point pipeline rewrites the result (§4.4), and — unless
// the statement is read-only — Engine.IsReadOnly is enforced before the
// plan is handed back for execution.
func (e *Engine) build(s *sql.Session, stmt ast.Statement) (sql.Node, error) {
	b := planbuilder.NewBuilder(s.Catalog(), s.CurrentDatabase())
	node, err := b.Build(stmt)
	if err != nil {
		return nil, errors.Wrap(err, "build logical plan")
	}
	if e.isReadOnly() && isMutating(node) {
		return nil, tideerrors.ErrReadOnly.New()
	}
	optimized, err := analyzer.Optimize(node)
	if err != nil {
		return nil, errors.Wrap(err, "optimize logical plan")
	}
	return optimized, nil
}

func (e *Engine) isReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}

// SetReadOnly flips the engine's read-only flag for sessions created from
// this point forward and for sessions already sharing this Engine (the
// check happens per Execute call, not at session-creation time).
func (e *Engine) SetReadOnly(ro bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readOnly = ro
}

// isMutating reports whether node's root is one of the DML/DDL statements
// Config.IsReadOnly rejects (§5 "IsReadOnly sets the engine to disallow
// modification queries").
func isMutating(node sql.Node) bool {
	switch node.(type) {
	case *plan.Insert, *plan.Update, *plan.Delete, *plan.Merge,
		*plan.CreateTable, *plan.CreateView, *plan.DropTable:
		return true
	default:
		return false
	}
}
