// Package transform provides the generic tree-rewrite visitor the optimizer
// pipeline is built on: TransformUp applies a NodeFunc bottom-up over a plan
// tree, tracking whether anything actually changed (TreeIdentity) so the
// fixed-point driver can detect convergence without a separate deep-equality
// pass (§4.4 "convergence check uses structural equality").
package transform

import "github.com/tidesql/tidesql/sql"

// TreeIdentity reports whether a transform produced a new tree or returned
// the original unchanged.
type TreeIdentity bool

const (
	SameTree TreeIdentity = false
	NewTree  TreeIdentity = true
)

func (t TreeIdentity) Changed() bool { return bool(t) }

// NodeFunc is applied to one node during a tree walk.
type NodeFunc func(n sql.Node) (sql.Node, TreeIdentity, error)

// TransformUp rewrites n by applying f to every child first, then to n
// itself (post-order / bottom-up), matching the teacher's transform.NodeFunc
// convention. If f never reports NewTree anywhere in the subtree, the
// original node is returned unchanged (SameTree), which both avoids
// needless allocation and doubles as a cheap "did this pass change
// anything" signal for the fixed-point loop.
func TransformUp(n sql.Node, f NodeFunc) (sql.Node, TreeIdentity, error) {
	if n == nil {
		return n, SameTree, nil
	}
	children := n.Children()
	newChildren := make([]sql.Node, len(children))
	anyChanged := false
	for i, c := range children {
		nc, same, err := TransformUp(c, f)
		if err != nil {
			return nil, SameTree, err
		}
		newChildren[i] = nc
		if same.Changed() {
			anyChanged = true
		}
	}
	cur := n
	if anyChanged {
		replaced, err := n.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
		cur = replaced
	}
	out, same, err := f(cur)
	if err != nil {
		return nil, SameTree, err
	}
	if same.Changed() || anyChanged {
		return out, NewTree, nil
	}
	return out, SameTree, nil
}

// Inspect walks every node of the tree, calling f; it stops early if f
// returns false.
func Inspect(n sql.Node, f func(sql.Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, f)
	}
}

// ExprFunc is applied to one expression during an expression-tree walk.
type ExprFunc func(e sql.Expression) (sql.Expression, TreeIdentity, error)

// TransformExprsUp rewrites e bottom-up, mirroring TransformUp for the
// expression tree.
func TransformExprsUp(e sql.Expression, f ExprFunc) (sql.Expression, TreeIdentity, error) {
	if e == nil {
		return e, SameTree, nil
	}
	children := e.Children()
	newChildren := make([]sql.Expression, len(children))
	anyChanged := false
	for i, c := range children {
		nc, same, err := TransformExprsUp(c, f)
		if err != nil {
			return nil, SameTree, err
		}
		newChildren[i] = nc
		if same.Changed() {
			anyChanged = true
		}
	}
	cur := e
	if anyChanged {
		replaced, err := e.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
		cur = replaced
	}
	out, same, err := f(cur)
	if err != nil {
		return nil, SameTree, err
	}
	if same.Changed() || anyChanged {
		return out, NewTree, nil
	}
	return out, SameTree, nil
}

// InspectExpr walks every expression node, calling f; stops early on false.
func InspectExpr(e sql.Expression, f func(sql.Expression) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, c := range e.Children() {
		InspectExpr(c, f)
	}
}

// TransformExpressionsUp rewrites every expression attached to n (and its
// subtree, via ExpressionHolder) using f, leaving the node tree shape itself
// untouched except for expression substitution.
func TransformExpressionsUp(n sql.Node, f ExprFunc) (sql.Node, TreeIdentity, error) {
	return TransformUp(n, func(node sql.Node) (sql.Node, TreeIdentity, error) {
		eh, ok := node.(sql.ExpressionHolder)
		if !ok {
			return node, SameTree, nil
		}
		exprs := eh.Expressions()
		newExprs := make([]sql.Expression, len(exprs))
		changed := false
		for i, e := range exprs {
			ne, same, err := TransformExprsUp(e, f)
			if err != nil {
				return nil, SameTree, err
			}
			newExprs[i] = ne
			if same.Changed() {
				changed = true
			}
		}
		if !changed {
			return node, SameTree, nil
		}
		out, err := eh.WithExpressions(newExprs...)
		if err != nil {
			return nil, SameTree, err
		}
		return out, NewTree, nil
	})
}
