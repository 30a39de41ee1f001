package sql

// SortField is one ORDER BY key: an expression plus direction and NULL
// placement (§3 Value "fixed nulls-first/last policy chosen by the sort
// operator"). Shared by plan.Sort/TopN and the ARRAY_AGG/window ORDER BY
// clauses in package expression, which is why it lives in sql rather than
// sql/plan (avoiding an import cycle between plan and expression).
type SortField struct {
	Expr       Expression
	Desc       bool
	NullsFirst bool
}

func (f SortField) WithExpr(e Expression) SortField {
	return SortField{Expr: e, Desc: f.Desc, NullsFirst: f.NullsFirst}
}

func (f SortField) String() string {
	s := f.Expr.String()
	if f.Desc {
		s += " DESC"
	} else {
		s += " ASC"
	}
	if f.NullsFirst {
		s += " NULLS FIRST"
	} else {
		s += " NULLS LAST"
	}
	return s
}
