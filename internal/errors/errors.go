// Package errors declares the tagged error kinds used across tidesql. A Kind
// is created once and reused to classify every concrete error of that shape,
// so callers can match on the kind with errors.Is regardless of the message
// text a particular call site attached to it.
package errors

import (
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Kind re-exports go-errors.v1's Kind so callers of this package never need
// to import gopkg.in/src-d/go-errors.v1 directly.
type Kind = goerrors.Kind

// NewKind declares a new error kind with a printf-style message template.
func NewKind(message string) *Kind {
	return goerrors.NewKind(message)
}

var (
	// ParseError wraps a failure from the external SQL-AST producer; the
	// core itself never parses SQL, it only surfaces the producer's error.
	ErrParse = NewKind("parse error: %s")

	// InvalidQuery covers semantically invalid but syntactically well
	// formed queries: type mismatches, unknown grouping columns,
	// malformed literals.
	ErrInvalidQuery = NewKind("invalid query: %s")

	// Name resolution failures.
	ErrColumnNotFound = NewKind("column not found: %s")
	ErrTableNotFound  = NewKind("table not found: %s")
	ErrSchemaNotFound = NewKind("schema not found: %s")
	ErrAmbiguousName  = NewKind("ambiguous column reference: %s")

	// Unsupported marks a syntactically valid construct the engine does
	// not implement.
	ErrUnsupported = NewKind("unsupported: %s")

	// Runtime errors raised mid-execution. SAFE_* variants intercept
	// these and produce NULL instead of propagating them.
	ErrDivideByZero = NewKind("division by zero")
	ErrOverflow     = NewKind("numeric overflow: %s")
	ErrCastFailure  = NewKind("cannot cast %v to %s")
	ErrAssert       = NewKind("assertion failed: %s")

	// Cooperative cancellation.
	ErrCancelled = NewKind("query cancelled")
	ErrDeadline  = NewKind("deadline exceeded")

	// Internal marks invariant violations: bugs, not user errors.
	ErrInternal = NewKind("internal error: %s")

	// Catalog/session/transaction errors.
	ErrTableExists       = NewKind("table already exists: %s")
	ErrDatabaseExists    = NewKind("database already exists: %s")
	ErrReadOnly          = NewKind("engine is read-only")
	ErrNoActiveTxn       = NewKind("no active transaction")
	ErrTxnAlreadyActive  = NewKind("a transaction is already active on this session")
	ErrRecursionExceeded = NewKind("recursive query exceeded max iterations (%d)")

	ErrViewExists   = NewKind("view already exists: %s")
	ErrViewNotFound = NewKind("view not found: %s")
)
