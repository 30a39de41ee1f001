package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
)

// GroupingSet is one enumerated active-key subset for ROLLUP/CUBE/GROUPING
// SETS (§4.5, Glossary "Grouping set"): the indices (into HashAggregate's
// GroupKeys) that participate in this set. Keys not listed are NULLed out
// in that set's output rows, and GROUPING(e) reports 1 for them.
type GroupingSet []int

// Rollup expands ROLLUP(k0..kn-1) into its n+1 prefix-nested sets,
// largest (all keys) first, per standard ROLLUP semantics.
func Rollup(n int) []GroupingSet {
	sets := make([]GroupingSet, 0, n+1)
	for i := n; i >= 0; i-- {
		s := make(GroupingSet, i)
		for j := 0; j < i; j++ {
			s[j] = j
		}
		sets = append(sets, s)
	}
	return sets
}

// Cube expands CUBE(k0..kn-1) into all 2^n subsets.
func Cube(n int) []GroupingSet {
	var sets []GroupingSet
	for mask := (1 << n) - 1; mask >= 0; mask-- {
		var s GroupingSet
		for j := 0; j < n; j++ {
			if mask&(1<<j) != 0 {
				s = append(s, j)
			}
		}
		sets = append(sets, s)
	}
	return sets
}

// HashAggregate groups by GroupKeys (possibly under multiple GroupingSets
// for ROLLUP/CUBE/GROUPING SETS) and computes Aggregates per group (§3
// "HashAggregate", §4.5).
type HashAggregate struct {
	unaryNode
	GroupKeys    []sql.Expression
	GroupNames   []string
	Aggregates   []*expression.Aggregate
	AggNames     []string
	GroupingSets []GroupingSet // nil means "one set: every key active"
}

func NewHashAggregate(groupKeys []sql.Expression, groupNames []string, aggregates []*expression.Aggregate, aggNames []string, child sql.Node) *HashAggregate {
	return &HashAggregate{unaryNode{child}, groupKeys, groupNames, aggregates, aggNames, nil}
}

func (h *HashAggregate) WithGroupingSets(sets []GroupingSet) *HashAggregate {
	h.GroupingSets = sets
	return h
}

// ActiveSets returns the grouping sets to iterate, defaulting to "every key
// active" for a plain (non-ROLLUP/CUBE/GROUPING SETS) GROUP BY.
func (h *HashAggregate) ActiveSets() []GroupingSet {
	if h.GroupingSets != nil {
		return h.GroupingSets
	}
	full := make(GroupingSet, len(h.GroupKeys))
	for i := range full {
		full[i] = i
	}
	return []GroupingSet{full}
}

func (h *HashAggregate) Schema() sql.Schema {
	out := make(sql.Schema, 0, len(h.GroupKeys)+len(h.Aggregates))
	for i, k := range h.GroupKeys {
		out = append(out, sql.Field{Name: h.GroupNames[i], Type: k.Type(), Nullable: true})
	}
	for i, a := range h.Aggregates {
		out = append(out, sql.Field{Name: h.AggNames[i], Type: a.Type(), Nullable: a.Nullable()})
	}
	return out
}

func (h *HashAggregate) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, fmt.Errorf("HashAggregate: expected 1 child, got %d", len(children))
	}
	cp := *h
	cp.Child = children[0]
	return &cp, nil
}

func (h *HashAggregate) Resolved() bool {
	if !h.Child.Resolved() {
		return false
	}
	for _, k := range h.GroupKeys {
		if !k.Resolved() {
			return false
		}
	}
	for _, a := range h.Aggregates {
		if !a.Resolved() {
			return false
		}
	}
	return true
}

func (h *HashAggregate) String() string {
	return fmt.Sprintf("HashAggregate(%d keys, %d aggs)", len(h.GroupKeys), len(h.Aggregates))
}

func (h *HashAggregate) Expressions() []sql.Expression {
	out := append([]sql.Expression{}, h.GroupKeys...)
	for _, a := range h.Aggregates {
		out = append(out, a)
	}
	return out
}

func (h *HashAggregate) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	n := len(h.GroupKeys)
	if len(exprs) != n+len(h.Aggregates) {
		return nil, fmt.Errorf("HashAggregate: expected %d expressions, got %d", n+len(h.Aggregates), len(exprs))
	}
	cp := *h
	cp.GroupKeys = append([]sql.Expression{}, exprs[:n]...)
	cp.Aggregates = make([]*expression.Aggregate, len(h.Aggregates))
	for i, e := range exprs[n:] {
		agg, ok := e.(*expression.Aggregate)
		if !ok {
			return nil, fmt.Errorf("HashAggregate: expression %d is not an Aggregate", i)
		}
		cp.Aggregates[i] = agg
	}
	return &cp, nil
}
