package rowexec

import (
	"errors"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
	"github.com/tidesql/tidesql/sql/types"
)

// execBlock runs Stmts in order, short-circuiting on the first error or
// control signal (Break/Return) raised by a nested statement (§3 "Block").
func execBlock(ctx *sql.Context, b *plan.Block) (*sql.TableData, error) {
	var last *sql.TableData
	for _, stmt := range b.Stmts {
		t, err := Exec(ctx, stmt)
		if err != nil {
			return nil, err
		}
		last = t
	}
	if last == nil {
		return sql.EmptyTableData(nil), nil
	}
	return last, nil
}

func execIf(ctx *sql.Context, n *plan.If) (*sql.TableData, error) {
	ok, err := evalBool(ctx, n.Condition, sql.Record{})
	if err != nil {
		return nil, err
	}
	if ok {
		return Exec(ctx, n.Then)
	}
	if n.Else != nil {
		return Exec(ctx, n.Else)
	}
	return sql.EmptyTableData(nil), nil
}

// execWhile evaluates Condition before each iteration, catching an
// unlabeled Break raised from Body as loop exit rather than an error;
// labeled breaks are caught the same way since control-flow nodes carry no
// label of their own to match against (§3 "While").
func execWhile(ctx *sql.Context, w *plan.While) (*sql.TableData, error) {
	var last *sql.TableData
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		ok, err := evalBool(ctx, w.Condition, sql.Record{})
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := Exec(ctx, w.Body)
		if isBreak(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		last = t
	}
	if last == nil {
		return sql.EmptyTableData(nil), nil
	}
	return last, nil
}

// execLoop runs Body unconditionally until a Break (or Return, which
// propagates past it) escapes it (§3 "Loop").
func execLoop(ctx *sql.Context, l *plan.Loop) (*sql.TableData, error) {
	var last *sql.TableData
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		t, err := Exec(ctx, l.Body)
		if isBreak(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		last = t
	}
	if last == nil {
		return sql.EmptyTableData(nil), nil
	}
	return last, nil
}

// execFor iterates Query's result rows, binding each as the outer record
// for Body (§3 "For"). Body references the loop variable through
// expression.OuterColumn, the same mechanism correlated subqueries use.
func execFor(ctx *sql.Context, f *plan.For) (*sql.TableData, error) {
	rows, err := Exec(ctx, f.Query)
	if err != nil {
		return nil, err
	}
	var last *sql.TableData
	for i := 0; i < rows.RowCount(); i++ {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		rec := rows.Record(i)
		t, err := Exec(ctx.WithOuter(rec), f.Body)
		if isBreak(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		last = t
	}
	if last == nil {
		return sql.EmptyTableData(nil), nil
	}
	return last, nil
}

// execRepeat runs Body at least once, then repeats while Condition is
// false (§3 "Repeat": `REPEAT body UNTIL cond END REPEAT`).
func execRepeat(ctx *sql.Context, r *plan.Repeat) (*sql.TableData, error) {
	var last *sql.TableData
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		t, err := Exec(ctx, r.Body)
		if isBreak(err) {
			break
		}
		if err != nil {
			return nil, err
		}
		last = t
		done, err := evalBool(ctx, r.Condition, sql.Record{})
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if last == nil {
		return sql.EmptyTableData(nil), nil
	}
	return last, nil
}

// execTryCatch runs Try, falling back to Catch on any non-control-signal
// error (§3 "TryCatch"). Break/Return still propagate through it.
func execTryCatch(ctx *sql.Context, t *plan.TryCatch) (*sql.TableData, error) {
	out, err := Exec(ctx, t.Try)
	if err == nil {
		return out, nil
	}
	if isControlSignal(err) {
		return nil, err
	}
	return Exec(ctx, t.Catch)
}

// execReturn evaluates Value (if present) and raises it as a controlSignal
// that unwinds every enclosing Block/loop back to the statement that
// invoked this script (§3 "Return").
func execReturn(ctx *sql.Context, r *plan.Return) (*sql.TableData, error) {
	if r.Value == nil {
		return nil, &controlSignal{kind: signalReturn}
	}
	v, err := r.Value.Eval(ctx, sql.Record{})
	if err != nil {
		return nil, err
	}
	schema := sql.Schema{{Name: "", Type: types.DataType{Kind: v.Kind()}, Nullable: true}}
	out := sql.EmptyTableData(schema)
	if err := out.AppendRow(sql.Row{v}); err != nil {
		return nil, err
	}
	return nil, &controlSignal{kind: signalReturn, value: out}
}

func isControlSignal(err error) bool {
	var cs *controlSignal
	return errors.As(err, &cs)
}

// isBreak reports whether err is a Break signal a loop construct should
// catch rather than propagate. Any Break matches, labeled or not; labels
// are not compared.
func isBreak(err error) bool {
	var cs *controlSignal
	if !errors.As(err, &cs) {
		return false
	}
	return cs.kind == signalBreak
}
