package transform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/transform"
)

// fakeNode is a minimal sql.Node used only to exercise the generic walk.
type fakeNode struct {
	label    string
	children []sql.Node
}

func node(label string, children ...sql.Node) *fakeNode { return &fakeNode{label: label, children: children} }

func (n *fakeNode) Schema() sql.Schema  { return nil }
func (n *fakeNode) Children() []sql.Node { return n.children }
func (n *fakeNode) Resolved() bool      { return true }
func (n *fakeNode) String() string      { return n.label }
func (n *fakeNode) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &fakeNode{label: n.label, children: children}, nil
}

func TestTransformUpRelabelsBottomUp(t *testing.T) {
	tree := node("root", node("a"), node("b", node("c")))

	out, same, err := transform.TransformUp(tree, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		if n.String() == "c" {
			return node("c*"), transform.NewTree, nil
		}
		return n, transform.SameTree, nil
	})
	require.NoError(t, err)
	require.True(t, same.Changed())
	require.Equal(t, "c*", out.Children()[1].Children()[0].String())
}

func TestTransformUpReportsSameTreeWhenNothingChanges(t *testing.T) {
	tree := node("root", node("a"))
	out, same, err := transform.TransformUp(tree, func(n sql.Node) (sql.Node, transform.TreeIdentity, error) {
		return n, transform.SameTree, nil
	})
	require.NoError(t, err)
	require.False(t, same.Changed())
	require.Same(t, tree, out)
}
