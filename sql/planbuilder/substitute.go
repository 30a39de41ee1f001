package planbuilder

import "github.com/tidesql/tidesql/sql"

// substituteTopDown rewrites e by asking replace at every node, parent
// before children: if replace matches at a node, its children are never
// visited. This must run top-down rather than via transform.TransformExprsUp
// because a GROUP BY key substitution has to win over a coincidentally
// matching descendant that another, nested key already claimed.
func substituteTopDown(e sql.Expression, replace func(sql.Expression) (sql.Expression, bool, error)) (sql.Expression, error) {
	if r, ok, err := replace(e); err != nil {
		return nil, err
	} else if ok {
		return r, nil
	}
	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}
	newChildren := make([]sql.Expression, len(children))
	changed := false
	for i, c := range children {
		nc, err := substituteTopDown(c, replace)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return e, nil
	}
	return e.WithChildren(newChildren...)
}

// exprEqual is a structural-equality check by rendered text, used to match
// a SELECT-list/HAVING/ORDER-BY expression against a declared GROUP BY key.
// String-equality is sufficient here: the planner builds both sides from
// the same scope, so equal SQL text always means equal GetField indices.
func exprEqual(a, b sql.Expression) bool { return a.String() == b.String() }
