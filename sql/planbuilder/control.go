package planbuilder

import (
	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/plan"
)

func (b *Builder) buildBlock(s *scope, n *ast.Block) (sql.Node, error) {
	stmts := make([]sql.Node, len(n.Stmts))
	for i, stmt := range n.Stmts {
		built, err := b.buildStatement(s, stmt)
		if err != nil {
			return nil, err
		}
		stmts[i] = built
	}
	return plan.NewBlock(stmts...), nil
}

func (b *Builder) buildIf(s *scope, n *ast.If) (sql.Node, error) {
	cond, err := b.buildExpr(s, n.Condition)
	if err != nil {
		return nil, err
	}
	then, err := b.buildBlock(s, n.Then)
	if err != nil {
		return nil, err
	}
	var els sql.Node
	if n.Else != nil {
		els, err = b.buildStatement(s, n.Else)
		if err != nil {
			return nil, err
		}
	}
	return plan.NewIf(cond, then, els), nil
}

func (b *Builder) buildWhile(s *scope, n *ast.While) (sql.Node, error) {
	cond, err := b.buildExpr(s, n.Condition)
	if err != nil {
		return nil, err
	}
	body, err := b.buildBlock(s, n.Body)
	if err != nil {
		return nil, err
	}
	return plan.NewWhile(cond, body), nil
}

func (b *Builder) buildLoop(s *scope, n *ast.Loop) (sql.Node, error) {
	body, err := b.buildBlock(s, n.Body)
	if err != nil {
		return nil, err
	}
	return plan.NewLoop(body), nil
}

func (b *Builder) buildFor(s *scope, n *ast.For) (sql.Node, error) {
	inner := s.push()
	query, err := b.buildSelectStatement(inner, n.Query)
	if err != nil {
		return nil, err
	}
	bodyScope := s.push()
	bodyScope.node, bodyScope.schema = query.node, renameTable(query.schema, n.Alias)
	body, err := b.buildBlock(bodyScope, n.Body)
	if err != nil {
		return nil, err
	}
	return plan.NewFor(n.Alias, query.node, body), nil
}

func (b *Builder) buildRepeat(s *scope, n *ast.Repeat) (sql.Node, error) {
	body, err := b.buildBlock(s, n.Body)
	if err != nil {
		return nil, err
	}
	cond, err := b.buildExpr(s, n.Condition)
	if err != nil {
		return nil, err
	}
	return plan.NewRepeat(body, cond), nil
}

func (b *Builder) buildTryCatch(s *scope, n *ast.TryCatch) (sql.Node, error) {
	try, err := b.buildBlock(s, n.Try)
	if err != nil {
		return nil, err
	}
	catch, err := b.buildBlock(s, n.Catch)
	if err != nil {
		return nil, err
	}
	return plan.NewTryCatch(try, catch), nil
}

func (b *Builder) buildReturn(s *scope, n *ast.Return) (sql.Node, error) {
	if n.Value == nil {
		return plan.NewReturn(nil), nil
	}
	val, err := b.buildExpr(s, n.Value)
	if err != nil {
		return nil, err
	}
	return plan.NewReturn(val), nil
}

func (b *Builder) buildBreak(*ast.Break) (sql.Node, error) {
	return plan.NewBreak(""), nil
}

func (b *Builder) buildLeave(n *ast.Leave) (sql.Node, error) {
	return plan.NewBreak(n.Label), nil
}
