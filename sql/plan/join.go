package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// JoinType names the outer-join variant; INNER/CROSS share the zero value
// distinction via the separate CrossJoin node below.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (t JoinType) String() string {
	switch t {
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "INNER"
	}
}

type binaryNode struct {
	Left, Right sql.Node
}

func (b binaryNode) Children() []sql.Node { return []sql.Node{b.Left, b.Right} }

// HashJoin equi-joins Left/Right on LeftKeys[i] = RightKeys[i], optionally
// narrowed further by a residual non-equi Filter wrapped above it (§3
// "HashJoin", §4.4 cross->hash, §4.5 HashJoin policy).
type HashJoin struct {
	binaryNode
	Type      JoinType
	LeftKeys  []sql.Expression
	RightKeys []sql.Expression
}

func NewHashJoin(jt JoinType, left, right sql.Node, leftKeys, rightKeys []sql.Expression) *HashJoin {
	return &HashJoin{binaryNode{left, right}, jt, leftKeys, rightKeys}
}

func (j *HashJoin) Schema() sql.Schema {
	if j.Type == JoinRight {
		return j.Right.Schema().Concat(j.Left.Schema())
	}
	return j.Left.Schema().Concat(j.Right.Schema())
}
func (j *HashJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("HashJoin: expected 2 children, got %d", len(children))
	}
	return &HashJoin{binaryNode{children[0], children[1]}, j.Type, j.LeftKeys, j.RightKeys}, nil
}
func (j *HashJoin) Resolved() bool {
	if !j.Left.Resolved() || !j.Right.Resolved() {
		return false
	}
	for _, k := range j.LeftKeys {
		if !k.Resolved() {
			return false
		}
	}
	for _, k := range j.RightKeys {
		if !k.Resolved() {
			return false
		}
	}
	return true
}
func (j *HashJoin) String() string { return fmt.Sprintf("HashJoin(%s)", j.Type) }
func (j *HashJoin) Expressions() []sql.Expression {
	return append(append([]sql.Expression{}, j.LeftKeys...), j.RightKeys...)
}
func (j *HashJoin) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	n := len(j.LeftKeys)
	cp := *j
	cp.LeftKeys = append([]sql.Expression{}, exprs[:n]...)
	cp.RightKeys = append([]sql.Expression{}, exprs[n:]...)
	return &cp, nil
}

// NestedLoopJoin evaluates Condition per pair of rows, used for non-equi or
// complex predicates the cross->hash pass cannot reshape (§3, §4.5).
type NestedLoopJoin struct {
	binaryNode
	Type      JoinType
	Condition sql.Expression
}

func NewNestedLoopJoin(jt JoinType, left, right sql.Node, cond sql.Expression) *NestedLoopJoin {
	return &NestedLoopJoin{binaryNode{left, right}, jt, cond}
}

func (j *NestedLoopJoin) Schema() sql.Schema {
	if j.Type == JoinRight {
		return j.Right.Schema().Concat(j.Left.Schema())
	}
	return j.Left.Schema().Concat(j.Right.Schema())
}
func (j *NestedLoopJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("NestedLoopJoin: expected 2 children, got %d", len(children))
	}
	return &NestedLoopJoin{binaryNode{children[0], children[1]}, j.Type, j.Condition}, nil
}
func (j *NestedLoopJoin) Resolved() bool {
	return j.Left.Resolved() && j.Right.Resolved() && (j.Condition == nil || j.Condition.Resolved())
}
func (j *NestedLoopJoin) String() string { return fmt.Sprintf("NestedLoopJoin(%s)", j.Type) }
func (j *NestedLoopJoin) Expressions() []sql.Expression {
	if j.Condition == nil {
		return nil
	}
	return []sql.Expression{j.Condition}
}
func (j *NestedLoopJoin) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	cp := *j
	if len(exprs) > 0 {
		cp.Condition = exprs[0]
	}
	return &cp, nil
}

// CrossJoin is the full cartesian product; no strict-predicate analysis
// eliminates it (§9 open question, §4.4 "Preserves cross-join semantics").
// eliminateJoins drops it only when one side is the single-row, zero-column
// Values node, and crossToHash may turn it into a HashJoin.
type CrossJoin struct{ binaryNode }

func NewCrossJoin(left, right sql.Node) *CrossJoin { return &CrossJoin{binaryNode{left, right}} }

func (j *CrossJoin) Schema() sql.Schema { return j.Left.Schema().Concat(j.Right.Schema()) }
func (j *CrossJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, fmt.Errorf("CrossJoin: expected 2 children, got %d", len(children))
	}
	return &CrossJoin{binaryNode{children[0], children[1]}}, nil
}
func (j *CrossJoin) Resolved() bool { return j.Left.Resolved() && j.Right.Resolved() }
func (j *CrossJoin) String() string { return "CrossJoin" }
