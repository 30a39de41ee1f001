// Package planbuilder consumes a parsed ast.Statement and the catalog to
// produce a fully typed sql.Node logical plan: resolving table and column
// references, rewriting `*`/`t.*` into concrete projections, separating
// GROUP BY keys (including ROLLUP/CUBE/GROUPING SETS) from aggregate
// arguments, and validating the constraints of §4.3. Unlike the teacher's
// two-phase parse-then-resolve design, schemas are known from the catalog
// up front, so names resolve eagerly during the single build pass rather
// than through a separate analyzer resolution stage.
package planbuilder

import (
	"strings"

	"github.com/tidesql/tidesql/sql"
)

// scope tracks the schema and name bindings visible while building one
// nested level of a statement (a SELECT, a subquery, a CTE body). It
// mirrors the teacher planbuilder's inScope/outScope threading (see
// sql/planbuilder/parse_test.go's `b.build(inScope, stmt, query)`).
type scope struct {
	b      *Builder
	parent *scope

	node   sql.Node
	schema sql.Schema

	// ctes holds WITH bindings visible in this scope and its children,
	// keyed by lowercased name.
	ctes map[string]*cteBinding
}

// cteBinding is a materialized-or-materializing CTE definition visible to
// name resolution within the WITH block that defined it.
type cteBinding struct {
	name      string
	schema    sql.Schema
	recursive bool
}

func newScope(b *Builder, parent *scope) *scope {
	return &scope{b: b, parent: parent}
}

func (s *scope) push() *scope { return newScope(s.b, s) }

func (s *scope) lookupCte(name string) (*cteBinding, bool) {
	key := strings.ToLower(name)
	for sc := s; sc != nil; sc = sc.parent {
		if sc.ctes != nil {
			if c, ok := sc.ctes[key]; ok {
				return c, true
			}
		}
	}
	return nil, false
}

func (s *scope) defineCte(c *cteBinding) {
	if s.ctes == nil {
		s.ctes = make(map[string]*cteBinding)
	}
	s.ctes[strings.ToLower(c.name)] = c
}

// resolveColumn resolves a qualified or unqualified column name against
// this scope's schema, and failing that against enclosing scopes, in which
// case the result is an OuterColumn rather than a GetField.
func (s *scope) resolveColumn(table, name string) (sql.Expression, error) {
	if s.schema != nil {
		if idx, _, ok := s.schema.IndexOf(table, name); ok {
			f := s.schema[idx]
			return s.b.newGetField(idx, f, s.node), nil
		}
	}
	if s.parent != nil {
		return s.parent.resolveOuter(table, name)
	}
	return nil, errColumnNotFound(name)
}

// resolveOuter is resolveColumn's counterpart for an enclosing scope: a
// hit here becomes an OuterColumn reference rather than a GetField.
func (s *scope) resolveOuter(table, name string) (sql.Expression, error) {
	if s.schema != nil {
		if idx, _, ok := s.schema.IndexOf(table, name); ok {
			f := s.schema[idx]
			return s.b.newOuterColumn(idx, f), nil
		}
	}
	if s.parent != nil {
		return s.parent.resolveOuter(table, name)
	}
	return nil, errColumnNotFound(name)
}
