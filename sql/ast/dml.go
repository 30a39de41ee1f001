package ast

// Insert is `INSERT INTO table [(cols)] {VALUES (...), ... | select}`.
type Insert struct {
	Table   TableName
	Columns []string
	Rows    [][]Expr        // literal VALUES rows; nil when Select is set
	Select  SelectStatement // INSERT INTO ... SELECT form; nil when Rows is set
}

func (*Insert) iStatement() {}

// UpdateExpr is one `col = expr` assignment.
type UpdateExpr struct {
	Name string
	Expr Expr
}

// Update is `UPDATE table SET assignments [WHERE w]`.
type Update struct {
	Table TableName
	Exprs []*UpdateExpr
	Where *Where
}

func (*Update) iStatement() {}

// Delete is `DELETE FROM table [WHERE w]`.
type Delete struct {
	Table TableName
	Where *Where
}

func (*Delete) iStatement() {}

// MergeWhen is one `WHEN [NOT] MATCHED [BY SOURCE|TARGET] [AND cond] THEN
// action` clause.
type MergeWhen struct {
	Matched     bool
	BySource    bool
	Condition   Expr // extra AND condition, nil if none
	IsDelete    bool
	IsInsert    bool
	UpdateExprs []*UpdateExpr
	InsertCols  []string
	InsertVals  []Expr
}

// Merge is BigQuery's `MERGE target USING source ON cond WHEN ... THEN ...`.
type Merge struct {
	Target TableName
	Source TableExpr
	On     Expr
	Whens  []*MergeWhen
}

func (*Merge) iStatement() {}
