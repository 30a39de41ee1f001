package expression

import (
	"fmt"
	"strings"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/types"
)

// ScalarFn is the shape every builtin/user scalar function body exposes: a
// row-at-a-time evaluator plus the result type it produces for a given set
// of argument types. Package function populates a name -> builder registry
// of these; ScalarFunction below is the expression-tree node that holds a
// resolved instance.
type ScalarFn interface {
	Name() string
	Eval(ctx *sql.Context, args []types.Value) (types.Value, error)
	ResolveType(argTypes []types.DataType) (types.DataType, error)
}

// ScalarFunction is a resolved `name(args...)` call (§3 "ScalarFunction{name,
// args}"). Before planning resolves Fn, it carries only Name and behaves as
// an unresolved node so the analyzer's resolution loop keeps visiting it.
type ScalarFunction struct {
	Name string
	Args []sql.Expression
	Fn   ScalarFn
	typ  types.DataType
}

func NewUnresolvedFunction(name string, args []sql.Expression) *ScalarFunction {
	return &ScalarFunction{Name: strings.ToUpper(name), Args: args}
}

func NewResolvedFunction(fn ScalarFn, args []sql.Expression, typ types.DataType) *ScalarFunction {
	return &ScalarFunction{Name: fn.Name(), Args: args, Fn: fn, typ: typ}
}

func (f *ScalarFunction) Type() types.DataType { return f.typ }
func (f *ScalarFunction) Nullable() bool       { return true }
func (f *ScalarFunction) Resolved() bool {
	if f.Fn == nil {
		return false
	}
	for _, a := range f.Args {
		if !a.Resolved() {
			return false
		}
	}
	return true
}
func (f *ScalarFunction) Children() []sql.Expression { return f.Args }
func (f *ScalarFunction) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	return &ScalarFunction{Name: f.Name, Args: children, Fn: f.Fn, typ: f.typ}, nil
}

func (f *ScalarFunction) Eval(ctx *sql.Context, rec sql.Record) (types.Value, error) {
	if f.Fn == nil {
		return types.Value{}, fmt.Errorf("function %s not resolved", f.Name)
	}
	args := make([]types.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(ctx, rec)
		if err != nil {
			return types.Value{}, err
		}
		args[i] = v
	}
	return f.Fn.Eval(ctx, args)
}

func (f *ScalarFunction) String() string {
	argStrs := make([]string, len(f.Args))
	for i, a := range f.Args {
		argStrs[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(argStrs, ", "))
}
