// Package sql holds the data model shared by every other package in this
// module: Schema/Field, the columnar TableData, Row/Record row views, the
// execution Context, and the Catalog/Session contracts the planner,
// optimizer, and executor all depend on.
package sql

import (
	"strings"

	"github.com/tidesql/tidesql/sql/types"
)

// Field describes one column of a Schema: its name, declared type,
// nullability, and (optionally) the table that owns it for qualified lookup
// (§3 "Schema & Table").
type Field struct {
	Name     string
	Type     types.DataType
	Nullable bool
	Table    string
}

// Schema is an ordered sequence of Fields. Names are matched
// case-insensitively; duplicate names are permitted, disambiguated by
// position or table qualifier.
type Schema []Field

// IndexOf returns the position of the first field named name (optionally
// qualified by table), matched case-insensitively. ok is false if no field
// matches, and ambiguous is true if more than one unqualified match exists.
func (s Schema) IndexOf(table, name string) (idx int, ambiguous bool, ok bool) {
	found := -1
	count := 0
	for i, f := range s {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		if table != "" && !strings.EqualFold(f.Table, table) {
			continue
		}
		count++
		if found == -1 {
			found = i
		}
	}
	if count == 0 {
		return -1, false, false
	}
	if count > 1 && table == "" {
		return found, true, true
	}
	return found, false, true
}

// Concat appends two schemas, used to build join output schemas.
func (s Schema) Concat(o Schema) Schema {
	out := make(Schema, 0, len(s)+len(o))
	out = append(out, s...)
	out = append(out, o...)
	return out
}

func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Equal compares schemas by field name/type/nullable (not by owning table),
// used by the optimizer's idempotence and empty-propagation checks which
// require "the same output schema" (§4.4, §8).
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !strings.EqualFold(s[i].Name, o[i].Name) || !s[i].Type.Equal(o[i].Type) || s[i].Nullable != o[i].Nullable {
			return false
		}
	}
	return true
}
