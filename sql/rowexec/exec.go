// Package rowexec implements the physical executor (§4.5): one file per
// operator family, dispatched from the single entrypoint Exec. Grounded on
// the teacher's sql/rowexec package shape (one file per plan node, a
// top-level row iterator builder) adapted to this module's columnar,
// whole-table-at-a-time execution model instead of the teacher's
// row-at-a-time RowIter chain.
package rowexec

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/plan"
)

// controlSignal is returned up the call stack by Return/Break so the
// enclosing Block/Loop runner can catch it as a control-transfer sentinel
// rather than an execution error (§3 "Break exits the nearest enclosing
// Loop... the executor's loop runner catches it as a sentinel").
type controlSignal struct {
	kind  controlKind
	label string
	value *sql.TableData
}

type controlKind int

const (
	signalReturn controlKind = iota
	signalBreak
)

func (s *controlSignal) Error() string { return "control signal escaped its enclosing block" }

// Exec runs n to completion against ctx, returning its result table. It is
// wired as both sql.Context.ExecPlan (for subquery expressions) and
// Session.ExecPlan (for top-level execute_sql calls), matching the
// import-cycle-avoidance design documented on sql.Context.ExecPlan.
func Exec(ctx *sql.Context, n sql.Node) (*sql.TableData, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, err
	}
	switch t := n.(type) {
	case *plan.TableScan:
		return execTableScan(ctx, t)
	case *plan.Values:
		return execValues(ctx, t)
	case *plan.Empty:
		return sql.EmptyTableData(t.Schema()), nil
	case *plan.Filter:
		return execFilter(ctx, t)
	case *plan.Project:
		return execProject(ctx, t)
	case *plan.Sort:
		return execSort(ctx, t)
	case *plan.TopN:
		return execTopN(ctx, t)
	case *plan.Limit:
		return execLimit(ctx, t)
	case *plan.Distinct:
		return execDistinct(ctx, t)
	case *plan.Qualify:
		return execQualify(ctx, t)
	case *plan.Sample:
		return execSample(ctx, t)
	case *plan.Unnest:
		return execUnnest(ctx, t)
	case *plan.HashAggregate:
		return execHashAggregate(ctx, t)
	case *plan.HashJoin:
		return execHashJoin(ctx, t)
	case *plan.NestedLoopJoin:
		return execNestedLoopJoin(ctx, t)
	case *plan.CrossJoin:
		return execCrossJoin(ctx, t)
	case *plan.Union:
		return execUnion(ctx, t)
	case *plan.Intersect:
		return execIntersect(ctx, t)
	case *plan.Except:
		return execExcept(ctx, t)
	case *plan.Window:
		return execWindow(ctx, t)
	case *plan.WithCte:
		return execWithCte(ctx, t)
	case *plan.CteRef:
		return execCteRef(ctx, t)
	case *plan.Insert:
		return execInsert(ctx, t)
	case *plan.Update:
		return execUpdate(ctx, t)
	case *plan.Delete:
		return execDelete(ctx, t)
	case *plan.Merge:
		return execMerge(ctx, t)
	case *plan.CreateTable:
		return execCreateTable(ctx, t)
	case *plan.CreateView:
		return execCreateView(ctx, t)
	case *plan.DropTable:
		return execDropTable(ctx, t)
	case *plan.Block:
		return execBlock(ctx, t)
	case *plan.If:
		return execIf(ctx, t)
	case *plan.While:
		return execWhile(ctx, t)
	case *plan.Loop:
		return execLoop(ctx, t)
	case *plan.For:
		return execFor(ctx, t)
	case *plan.Repeat:
		return execRepeat(ctx, t)
	case *plan.TryCatch:
		return execTryCatch(ctx, t)
	case *plan.Return:
		return execReturn(ctx, t)
	case *plan.Break:
		return nil, &controlSignal{kind: signalBreak, label: t.Label}
	default:
		return nil, fmt.Errorf("rowexec: unsupported node type %T", n)
	}
}

func evalBool(ctx *sql.Context, e sql.Expression, rec sql.Record) (bool, error) {
	v, err := e.Eval(ctx, rec)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	return v.AsBool(), nil
}
