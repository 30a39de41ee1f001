package sql

import (
	stdctx "context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
	"github.com/tidesql/tidesql/sql/types"
)

// Context carries everything a single execute_sql call needs: the session
// it runs under, a cancel token, and a logger. It is the analogue of the
// teacher's sql.Context threaded through every planner/analyzer/executor
// call.
type Context struct {
	stdctx.Context

	Session *Session
	Logger  *logrus.Entry

	queryID string

	// ExecPlan executes a (sub)plan to a TableData. It is nil until the
	// engine wires it in at session-creation time; expressions that embed
	// a subplan (ScalarSubquery, Exists, InSubquery, ArraySubquery) call it
	// at Eval-time instead of importing the executor package directly,
	// which would otherwise create an import cycle between sql/expression
	// and sql/rowexec.
	ExecPlan func(ctx *Context, n Node) (*TableData, error)

	// Outer is the current outer row for a correlated subquery, bound by
	// the subquery-evaluating operator before each ExecPlan call so
	// expression.OuterColumn can resolve against it. Nil outside a
	// correlated subquery's evaluation.
	Outer *Record

	// Ctes holds the materialized result of every WITH binding in scope,
	// keyed by name; CteRef resolves against this map instead of the
	// catalog (§4.5 "CTE/Recursive CTE").
	Ctes map[string]*TableData
}

// WithCtes returns a shallow copy of c with Ctes bound to the given
// materialization map, used while evaluating a WithCte's Query.
func (c *Context) WithCtes(ctes map[string]*TableData) *Context {
	cp := *c
	cp.Ctes = ctes
	return &cp
}

// WithOuter returns a shallow copy of c with Outer bound to rec, used by
// correlated subquery evaluation to scope one outer row at a time without
// mutating the shared Context.
func (c *Context) WithOuter(rec Record) *Context {
	cp := *c
	cp.Outer = &rec
	return &cp
}

// NewContext derives a query-scoped Context from a Session, cancellable via
// the returned CancelFunc (§5 "Each query carries a cancel token").
func NewContext(parent stdctx.Context, session *Session) (*Context, stdctx.CancelFunc) {
	cctx, cancel := stdctx.WithCancel(parent)
	qid := uuid.NewString()
	return &Context{
		Context:  cctx,
		Session:  session,
		Logger:   logrus.WithField("session_id", session.ID()).WithField("query_id", qid),
		queryID:  qid,
		ExecPlan: session.ExecPlan,
	}, cancel
}

// NewEmptyContext builds a Context with a throwaway Session, for tests and
// standalone expression evaluation that doesn't need catalog access.
func NewEmptyContext() *Context {
	s := NewSession(nil)
	ctx, _ := NewContext(stdctx.Background(), s)
	return ctx
}

// CheckCancelled returns ErrCancelled/ErrDeadline if the context has been
// cancelled, per §5's cooperative cancellation contract. Operators call this
// at chunk/batch boundaries and loop back-edges.
func (c *Context) CheckCancelled() error {
	select {
	case <-c.Done():
		if c.Err() == stdctx.DeadlineExceeded {
			return tideerrors.ErrDeadline.New()
		}
		return tideerrors.ErrCancelled.New()
	default:
		return nil
	}
}

// QueryID identifies this execute_sql call for logging/tracing.
func (c *Context) QueryID() string { return c.queryID }

// GetVariable resolves a session variable by name, used by the evaluator's
// column-resolution fallback (§4.2 "otherwise the evaluator consults session
// variables").
func (c *Context) GetVariable(name string) (types.Value, bool) {
	return c.Session.GetVariable(name)
}

var sessionIDCounter uint32

func nextSessionID() uint32 {
	return atomic.AddUint32(&sessionIDCounter, 1)
}
