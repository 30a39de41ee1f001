package planbuilder

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/ast"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/expression/function"
	"github.com/tidesql/tidesql/sql/expression/function/aggregation"
	"github.com/tidesql/tidesql/sql/types"
)

// buildExpr builds a scalar AST expression against s's current schema.
func (b *Builder) buildExpr(s *scope, e ast.Expr) (sql.Expression, error) {
	switch n := e.(type) {
	case *ast.ColName:
		return s.resolveColumn(n.Qualifier, n.Name)
	case *ast.NullVal:
		return expression.NewLiteral(types.Null, types.DataType{}), nil
	case ast.BoolVal:
		return expression.NewLiteral(types.NewBool(bool(n)), types.Bool), nil
	case ast.IntVal:
		return buildIntLiteral(string(n))
	case ast.FloatVal:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return nil, errInvalid("malformed float literal %q", string(n))
		}
		return expression.NewLiteral(types.NewFloat64(f), types.Float64Ty), nil
	case ast.StrVal:
		return expression.NewLiteral(types.NewString(string(n)), types.String), nil
	case ast.BytesVal:
		return expression.NewLiteral(types.NewBytes([]byte(n)), types.Bytes), nil
	case *ast.TypedStringLit:
		return b.buildTypedStringLit(n)
	case *ast.IntervalLit:
		return b.buildIntervalLit(s, n)
	case *ast.ValArg:
		return expression.NewParameter(n.Name, types.DataType{}), nil
	case *ast.AtVariable:
		return expression.NewVariable(n.Name, types.DataType{}), nil
	case *ast.Default:
		return expression.NewDefault(types.DataType{}), nil
	case *ast.AndExpr:
		return b.buildBinaryLogical(s, "AND", n.Left, n.Right)
	case *ast.OrExpr:
		return b.buildBinaryLogical(s, "OR", n.Left, n.Right)
	case *ast.NotExpr:
		inner, err := b.buildExpr(s, n.Expr)
		if err != nil {
			return nil, err
		}
		return expression.NewUnaryOp(expression.UnaryNot, inner), nil
	case *ast.ParenExpr:
		return b.buildExpr(s, n.Expr)
	case *ast.ComparisonExpr:
		return b.buildComparison(s, n)
	case *ast.BinaryExpr:
		return b.buildArith(s, n)
	case *ast.UnaryExpr:
		return b.buildUnary(s, n)
	case *ast.BetweenExpr:
		return b.buildBetween(s, n)
	case *ast.IsNullExpr:
		inner, err := b.buildExpr(s, n.Expr)
		if err != nil {
			return nil, err
		}
		return expression.NewIsNull(inner, n.Not), nil
	case *ast.IsDistinctFromExpr:
		l, err := b.buildExpr(s, n.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.buildExpr(s, n.Right)
		if err != nil {
			return nil, err
		}
		return expression.NewIsDistinctFrom(l, r, n.Not), nil
	case *ast.LikeExpr:
		return b.buildLike(s, n)
	case *ast.InExpr:
		return b.buildIn(s, n)
	case *ast.InSubqueryExpr:
		return b.buildInSubquery(s, n)
	case *ast.InUnnestExpr:
		return b.buildInUnnest(s, n)
	case *ast.ExistsExpr:
		return b.buildExists(s, n)
	case *ast.CaseExpr:
		return b.buildCase(s, n)
	case *ast.CastExpr:
		return b.buildCast(s, n)
	case *ast.FuncExpr:
		return b.buildFunc(s, n)
	case *ast.ArrayExpr:
		return b.buildArray(s, n)
	case *ast.ArrayAccessExpr:
		return b.buildArrayAccess(s, n)
	case *ast.StructExpr:
		return b.buildStruct(s, n)
	case *ast.StructAccessExpr:
		return b.buildStructAccess(s, n)
	case *ast.JsonAccessExpr:
		path, err := literalStringOf(n.Key)
		if err != nil {
			return nil, errInvalid("JSON path must be a string literal: %v", err)
		}
		base, err := b.buildExpr(s, n.Expr)
		if err != nil {
			return nil, err
		}
		return expression.NewJsonAccess(base, path), nil
	case *ast.ExtractExpr:
		inner, err := b.buildExpr(s, n.Expr)
		if err != nil {
			return nil, err
		}
		return expression.NewExtract(n.Part, inner), nil
	case *ast.SubstringExpr:
		return b.buildSubstring(s, n)
	case *ast.TrimExpr:
		return b.buildTrim(s, n)
	case *ast.PositionExpr:
		needle, err := b.buildExpr(s, n.Needle)
		if err != nil {
			return nil, err
		}
		hay, err := b.buildExpr(s, n.Haystack)
		if err != nil {
			return nil, err
		}
		return expression.NewPosition(needle, hay), nil
	case *ast.OverlayExpr:
		return b.buildOverlay(s, n)
	case *ast.AtTimeZoneExpr:
		inner, err := b.buildExpr(s, n.Expr)
		if err != nil {
			return nil, err
		}
		zone, err := literalStringOf(n.Zone)
		if err != nil {
			return nil, errInvalid("AT TIME ZONE must name a string literal zone: %v", err)
		}
		return expression.NewAtTimeZone(inner, zone), nil
	case *ast.Subquery, *ast.ScalarSubqueryExpr:
		return b.buildScalarSubqueryExpr(s, n)
	case *ast.ArraySubqueryExpr:
		return b.buildArraySubqueryExpr(s, n)
	case *ast.LambdaExpr:
		body, err := b.buildExpr(s, n.Body)
		if err != nil {
			return nil, err
		}
		return expression.NewLambda(n.Params, body), nil
	default:
		return nil, errUnsupported("expression " + astExprName(n))
	}
}

func astExprName(e ast.Expr) string {
	return strings.TrimPrefix(strings.TrimPrefix(sprintfType(e), "*ast."), "ast.")
}

func sprintfType(v any) string {
	type stringer interface{ String() string }
	if st, ok := v.(stringer); ok {
		return st.String()
	}
	return "expr"
}

func buildIntLiteral(raw string) (sql.Expression, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return expression.NewLiteral(types.NewInt64(i), types.Int64), nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errInvalid("malformed integer literal %q", raw)
	}
	return expression.NewLiteral(types.NewBigNumeric(d), types.BigNumeric), nil
}

func (b *Builder) buildTypedStringLit(n *ast.TypedStringLit) (sql.Expression, error) {
	dt, err := parseTypeName(n.Type)
	if err != nil {
		return nil, err
	}
	lit := expression.NewLiteral(types.NewString(n.Literal), types.String)
	return expression.NewCast(lit, dt, false), nil
}

func (b *Builder) buildIntervalLit(s *scope, n *ast.IntervalLit) (sql.Expression, error) {
	val, err := b.buildExpr(s, n.Value)
	if err != nil {
		return nil, err
	}
	unit := n.Unit
	if n.End != "" {
		unit = n.Unit + " TO " + n.End
	}
	return expression.NewIntervalLiteral(val, unit), nil
}

func (b *Builder) buildBinaryLogical(s *scope, op string, le, re ast.Expr) (sql.Expression, error) {
	l, err := b.buildExpr(s, le)
	if err != nil {
		return nil, err
	}
	r, err := b.buildExpr(s, re)
	if err != nil {
		return nil, err
	}
	if op == "AND" {
		return expression.NewBinaryOp(types.OpAnd, l, r, types.Bool), nil
	}
	return expression.NewBinaryOp(types.OpOr, l, r, types.Bool), nil
}

func (b *Builder) buildComparison(s *scope, n *ast.ComparisonExpr) (sql.Expression, error) {
	l, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	r, err := b.buildExpr(s, n.Right)
	if err != nil {
		return nil, err
	}
	op, err := comparisonOp(n.Operator)
	if err != nil {
		return nil, err
	}
	return expression.NewBinaryOp(op, l, r, types.Bool), nil
}

func (b *Builder) buildArith(s *scope, n *ast.BinaryExpr) (sql.Expression, error) {
	l, err := b.buildExpr(s, n.Left)
	if err != nil {
		return nil, err
	}
	r, err := b.buildExpr(s, n.Right)
	if err != nil {
		return nil, err
	}
	op, err := arithOp(n.Operator)
	if err != nil {
		return nil, err
	}
	resType, ok := types.WidenNumeric(l.Type(), r.Type())
	if !ok {
		resType = l.Type()
	}
	return expression.NewBinaryOp(op, l, r, resType), nil
}

func (b *Builder) buildUnary(s *scope, n *ast.UnaryExpr) (sql.Expression, error) {
	inner, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	kind, err := unaryOpKind(n.Operator)
	if err != nil {
		return nil, err
	}
	return expression.NewUnaryOp(kind, inner), nil
}

func comparisonOp(op string) (types.BinOp, error) {
	switch op {
	case "=", "==":
		return types.OpEq, nil
	case "!=", "<>":
		return types.OpNeq, nil
	case "<":
		return types.OpLt, nil
	case "<=":
		return types.OpLte, nil
	case ">":
		return types.OpGt, nil
	case ">=":
		return types.OpGte, nil
	default:
		return 0, errInvalid("unknown comparison operator %q", op)
	}
}

func arithOp(op string) (types.BinOp, error) {
	switch strings.ToUpper(op) {
	case "+":
		return types.OpAdd, nil
	case "-":
		return types.OpSub, nil
	case "*":
		return types.OpMul, nil
	case "/":
		return types.OpDiv, nil
	case "%":
		return types.OpMod, nil
	case "SAFE_ADD":
		return types.OpSafeAdd, nil
	case "SAFE_SUBTRACT":
		return types.OpSafeSub, nil
	case "SAFE_MULTIPLY":
		return types.OpSafeMul, nil
	case "SAFE_DIVIDE":
		return types.OpSafeDivide, nil
	case "IEEE_DIVIDE":
		return types.OpIEEEDivide, nil
	default:
		return 0, errInvalid("unknown arithmetic operator %q", op)
	}
}

func unaryOpKind(op string) (expression.UnaryOpKind, error) {
	switch strings.ToUpper(op) {
	case "-":
		return expression.UnaryNegate, nil
	case "NOT":
		return expression.UnaryNot, nil
	case "IS TRUE":
		return expression.UnaryIsTrue, nil
	case "IS FALSE":
		return expression.UnaryIsFalse, nil
	default:
		return 0, errInvalid("unknown unary operator %q", op)
	}
}

// literalStringOf extracts a Go string from an ast.Expr that must be a
// string literal (JSON path, AT TIME ZONE zone name): BigQuery requires
// these arguments to be constant, so the planbuilder rejects anything else
// up front rather than deferring to a runtime type error.
func literalStringOf(e ast.Expr) (string, error) {
	sv, ok := e.(ast.StrVal)
	if !ok {
		return "", errInvalid("expected a string literal, got %T", e)
	}
	return string(sv), nil
}

func (b *Builder) buildBetween(s *scope, n *ast.BetweenExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	from, err := b.buildExpr(s, n.From)
	if err != nil {
		return nil, err
	}
	to, err := b.buildExpr(s, n.To)
	if err != nil {
		return nil, err
	}
	between := expression.NewBetween(expr, from, to)
	if n.Not {
		return expression.NewUnaryOp(expression.UnaryNot, between), nil
	}
	return between, nil
}

func (b *Builder) buildLike(s *scope, n *ast.LikeExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	pat, err := b.buildExpr(s, n.Pattern)
	if err != nil {
		return nil, err
	}
	return expression.NewLike(expr, pat, n.Not, n.CaseInsensitive), nil
}

func (b *Builder) buildIn(s *scope, n *ast.InExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	list := make([]sql.Expression, len(n.Exprs))
	for i, e := range n.Exprs {
		list[i], err = b.buildExpr(s, e)
		if err != nil {
			return nil, err
		}
	}
	return expression.NewInList(expr, list, n.Not), nil
}

func (b *Builder) buildInUnnest(s *scope, n *ast.InUnnestExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	arr, err := b.buildExpr(s, n.Array)
	if err != nil {
		return nil, err
	}
	return expression.NewInUnnest(expr, arr, n.Not), nil
}

func (b *Builder) buildCase(s *scope, n *ast.CaseExpr) (sql.Expression, error) {
	var operand sql.Expression
	var err error
	if n.Operand != nil {
		operand, err = b.buildExpr(s, n.Operand)
		if err != nil {
			return nil, err
		}
	}
	branches := make([]expression.CaseBranch, len(n.Whens))
	for i, w := range n.Whens {
		cond, err := b.buildExpr(s, w.Cond)
		if err != nil {
			return nil, err
		}
		if operand != nil {
			cond = expression.NewBinaryOp(types.OpEq, operand, cond, types.Bool)
		}
		val, err := b.buildExpr(s, w.Val)
		if err != nil {
			return nil, err
		}
		branches[i] = expression.CaseBranch{Cond: cond, Result: val}
	}
	var elseExpr sql.Expression
	if n.Else != nil {
		elseExpr, err = b.buildExpr(s, n.Else)
		if err != nil {
			return nil, err
		}
	}
	typ := types.DataType{}
	if len(branches) > 0 {
		typ = branches[0].Result.Type()
	} else if elseExpr != nil {
		typ = elseExpr.Type()
	}
	return expression.NewCase(branches, elseExpr, typ), nil
}

func (b *Builder) buildCast(s *scope, n *ast.CastExpr) (sql.Expression, error) {
	inner, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	dt, err := parseTypeName(n.Type)
	if err != nil {
		return nil, err
	}
	return expression.NewCast(inner, dt, n.Safe), nil
}

func (b *Builder) buildSubstring(s *scope, n *ast.SubstringExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	from, err := b.buildExpr(s, n.From)
	if err != nil {
		return nil, err
	}
	var length sql.Expression
	if n.Len != nil {
		length, err = b.buildExpr(s, n.Len)
		if err != nil {
			return nil, err
		}
	}
	return expression.NewSubstring(expr, from, length), nil
}

func (b *Builder) buildTrim(s *scope, n *ast.TrimExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	var chars sql.Expression
	if n.Chars != nil {
		chars, err = b.buildExpr(s, n.Chars)
		if err != nil {
			return nil, err
		}
	}
	side := expression.TrimBoth
	switch n.Side {
	case ast.TrimLeading:
		side = expression.TrimLeading
	case ast.TrimTrailing:
		side = expression.TrimTrailing
	}
	return expression.NewTrim(expr, chars, side), nil
}

func (b *Builder) buildOverlay(s *scope, n *ast.OverlayExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	repl, err := b.buildExpr(s, n.Replacement)
	if err != nil {
		return nil, err
	}
	from, err := b.buildExpr(s, n.From)
	if err != nil {
		return nil, err
	}
	var forLen sql.Expression
	if n.For != nil {
		forLen, err = b.buildExpr(s, n.For)
		if err != nil {
			return nil, err
		}
	}
	return expression.NewOverlay(expr, repl, from, forLen), nil
}

func (b *Builder) buildArray(s *scope, n *ast.ArrayExpr) (sql.Expression, error) {
	elems := make([]sql.Expression, len(n.Exprs))
	for i, e := range n.Exprs {
		el, err := b.buildExpr(s, e)
		if err != nil {
			return nil, err
		}
		elems[i] = el
	}
	elemType := types.DataType{}
	if n.ElemType != "" {
		dt, err := parseTypeName(n.ElemType)
		if err != nil {
			return nil, err
		}
		elemType = dt
	} else if len(elems) > 0 {
		elemType = elems[0].Type()
	}
	return expression.NewArray(elems, elemType), nil
}

func (b *Builder) buildArrayAccess(s *scope, n *ast.ArrayAccessExpr) (sql.Expression, error) {
	arr, err := b.buildExpr(s, n.Array)
	if err != nil {
		return nil, err
	}
	idx, err := b.buildExpr(s, n.Index)
	if err != nil {
		return nil, err
	}
	var ordinal, safe bool
	switch n.Mode {
	case "ordinal":
		ordinal = true
	case "safe_offset":
		safe = true
	case "safe_ordinal":
		ordinal, safe = true, true
	}
	return expression.NewArrayAccess(arr, idx, ordinal, safe), nil
}

func (b *Builder) buildStruct(s *scope, n *ast.StructExpr) (sql.Expression, error) {
	fields := make([]types.FieldType, 0, len(n.Fields))
	exprs := make([]sql.Expression, 0, len(n.Fields))
	names := make([]string, 0, len(n.Fields))
	for i, f := range n.Fields {
		e, err := b.buildExpr(s, f.Expr)
		if err != nil {
			return nil, err
		}
		name := f.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		exprs = append(exprs, e)
		names = append(names, name)
		fields = append(fields, types.FieldType{Name: name, Type: e.Type()})
	}
	return expression.NewStruct(names, exprs, types.StructOf(fields...)), nil
}

func (b *Builder) buildStructAccess(s *scope, n *ast.StructAccessExpr) (sql.Expression, error) {
	inner, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	typ := types.DataType{}
	for _, f := range inner.Type().Fields {
		if strings.EqualFold(f.Name, n.Field) {
			typ = f.Type
			break
		}
	}
	return expression.NewStructAccess(inner, n.Field, typ), nil
}

func (b *Builder) buildExists(s *scope, n *ast.ExistsExpr) (sql.Expression, error) {
	sub, err := b.buildSubqueryPlan(s, n.Subquery)
	if err != nil {
		return nil, err
	}
	return expression.NewExists(sub, n.Not), nil
}

func (b *Builder) buildInSubquery(s *scope, n *ast.InSubqueryExpr) (sql.Expression, error) {
	expr, err := b.buildExpr(s, n.Expr)
	if err != nil {
		return nil, err
	}
	sub, err := b.buildSubqueryPlan(s, n.Subquery)
	if err != nil {
		return nil, err
	}
	return expression.NewInSubquery(expr, sub, n.Not), nil
}

// subqueryColumnType returns the output type of a single-column subquery
// plan, used to give ScalarSubquery/ArraySubquery their static Type().
func subqueryColumnType(sub sql.Node) types.DataType {
	schema := sub.Schema()
	if len(schema) == 0 {
		return types.DataType{}
	}
	return schema[0].Type
}

func (b *Builder) buildScalarSubqueryExpr(s *scope, n ast.Expr) (sql.Expression, error) {
	var sq *ast.Subquery
	switch v := n.(type) {
	case *ast.Subquery:
		sq = v
	case *ast.ScalarSubqueryExpr:
		sq = v.Subquery
	}
	sub, err := b.buildSubqueryPlan(s, sq)
	if err != nil {
		return nil, err
	}
	return expression.NewScalarSubquery(sub, subqueryColumnType(sub)), nil
}

func (b *Builder) buildArraySubqueryExpr(s *scope, n *ast.ArraySubqueryExpr) (sql.Expression, error) {
	sub, err := b.buildSubqueryPlan(s, n.Subquery)
	if err != nil {
		return nil, err
	}
	return expression.NewArraySubquery(sub, subqueryColumnType(sub)), nil
}

// buildSubqueryPlan builds sq's SELECT with s as the enclosing (outer)
// scope, so correlated column references resolve to OuterColumn.
func (b *Builder) buildSubqueryPlan(s *scope, sq *ast.Subquery) (sql.Node, error) {
	inner := s.push()
	out, err := b.buildSelectStatement(inner, sq.Select)
	if err != nil {
		return nil, err
	}
	return out.node, nil
}

// buildFunc resolves a function call into a ScalarFunction, Aggregate, or
// Window expression depending on the call shape (§3, §4.4).
func (b *Builder) buildFunc(s *scope, n *ast.FuncExpr) (sql.Expression, error) {
	name := strings.ToUpper(n.Name)

	if n.Over != nil {
		return b.buildWindowCall(s, n)
	}
	if aggregation.IsAggregateName(name) {
		return b.buildAggregateCall(s, n)
	}

	args := make([]sql.Expression, 0, len(n.Exprs))
	for _, se := range n.Exprs {
		ae, ok := se.(*ast.AliasedExpr)
		if !ok {
			return nil, errInvalid("%s: unexpected argument shape", name)
		}
		a, err := b.buildExpr(s, ae.Expr)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	argTypes := make([]types.DataType, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}
	fn, err := function.Default.Resolve(name, argTypes)
	if err != nil {
		return nil, err
	}
	resType, err := fn.ResolveType(argTypes)
	if err != nil {
		return nil, err
	}
	return expression.NewResolvedFunction(fn, args, resType), nil
}

func (b *Builder) buildAggregateCall(s *scope, n *ast.FuncExpr) (sql.Expression, error) {
	name := strings.ToUpper(n.Name)
	args := make([]sql.Expression, 0, len(n.Exprs))
	for _, se := range n.Exprs {
		if _, ok := se.(*ast.StarExpr); ok {
			continue // COUNT(*): no argument expressions
		}
		ae, ok := se.(*ast.AliasedExpr)
		if !ok {
			return nil, errInvalid("%s: unexpected argument shape", name)
		}
		a, err := b.buildExpr(s, ae.Expr)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	var argType types.DataType
	if len(args) > 0 {
		argType = args[0].Type()
	}
	resType := aggregation.ResultType(name, argType)
	agg := expression.NewAggregate(name, args, resType)
	if n.Distinct {
		agg = agg.WithDistinct(true)
	}
	if n.IgnoreNulls {
		agg = agg.WithIgnoreNulls(true)
	}
	if n.Filter != nil {
		f, err := b.buildExpr(s, n.Filter)
		if err != nil {
			return nil, err
		}
		agg = agg.WithFilter(f)
	}
	if len(n.OrderBy) > 0 {
		keys, err := b.buildOrderByKeys(s, n.OrderBy)
		if err != nil {
			return nil, err
		}
		agg = agg.WithOrderBy(keys)
	}
	if n.Limit != nil {
		lim, err := b.buildExpr(s, n.Limit)
		if err != nil {
			return nil, err
		}
		lv, ok := lim.(*expression.Literal)
		if ok {
			if iv, err := lv.Eval(nil, sql.Record{}); err == nil {
				agg = agg.WithLimit(int(mustInt64(iv)))
			}
		}
	}
	return agg, nil
}

func (b *Builder) buildWindowCall(s *scope, n *ast.FuncExpr) (sql.Expression, error) {
	name := strings.ToUpper(n.Name)
	args := make([]sql.Expression, 0, len(n.Exprs))
	for _, se := range n.Exprs {
		if _, ok := se.(*ast.StarExpr); ok {
			continue
		}
		ae, ok := se.(*ast.AliasedExpr)
		if !ok {
			return nil, errInvalid("%s: unexpected argument shape", name)
		}
		a, err := b.buildExpr(s, ae.Expr)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	partitionBy := make([]sql.Expression, len(n.Over.PartitionBy))
	for i, p := range n.Over.PartitionBy {
		pe, err := b.buildExpr(s, p)
		if err != nil {
			return nil, err
		}
		partitionBy[i] = pe
	}
	orderBy, err := b.buildOrderByKeys(s, n.Over.OrderBy)
	if err != nil {
		return nil, err
	}
	var argType types.DataType
	if len(args) > 0 {
		argType = args[0].Type()
	}
	resType := aggregation.ResultType(name, argType)
	if resType.Kind == types.KindNull {
		resType = windowFuncResultType(name, argType)
	}
	win := expression.NewWindow(name, args, partitionBy, orderBy, resType)
	if n.Over.Frame != nil {
		frame, err := buildFrame(n.Over.Frame)
		if err != nil {
			return nil, err
		}
		win = win.WithFrame(frame)
	}
	return win, nil
}

func windowFuncResultType(name string, argType types.DataType) types.DataType {
	switch strings.ToUpper(name) {
	case "ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE":
		return types.Int64
	case "PERCENT_RANK", "CUME_DIST":
		return types.Float64Ty
	case "LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE":
		return argType
	default:
		return argType
	}
}

func buildFrame(f *ast.FrameClause) (expression.WindowFrame, error) {
	mode := expression.FrameRange
	if f.Mode == "rows" {
		mode = expression.FrameRows
	}
	start, err := buildFrameBound(f.Start)
	if err != nil {
		return expression.WindowFrame{}, err
	}
	end, err := buildFrameBound(f.End)
	if err != nil {
		return expression.WindowFrame{}, err
	}
	return expression.WindowFrame{Mode: mode, Start: start, End: end}, nil
}

func buildFrameBound(fb ast.FrameBound) (expression.FrameBound, error) {
	var offset int64
	if fb.Offset != nil {
		lit, ok := fb.Offset.(ast.IntVal)
		if ok {
			i, err := strconv.ParseInt(string(lit), 10, 64)
			if err == nil {
				offset = i
			}
		}
	}
	switch fb.Kind {
	case "unbounded_preceding":
		return expression.FrameBound{Kind: expression.BoundUnboundedPreceding}, nil
	case "preceding":
		return expression.FrameBound{Kind: expression.BoundPreceding, Offset: offset}, nil
	case "current_row":
		return expression.FrameBound{Kind: expression.BoundCurrentRow}, nil
	case "following":
		return expression.FrameBound{Kind: expression.BoundFollowing, Offset: offset}, nil
	case "unbounded_following":
		return expression.FrameBound{Kind: expression.BoundUnboundedFollowing}, nil
	default:
		return expression.FrameBound{}, errInvalid("unknown frame bound %q", fb.Kind)
	}
}

func (b *Builder) buildOrderByKeys(s *scope, ob ast.OrderBy) ([]sql.SortField, error) {
	out := make([]sql.SortField, len(ob))
	for i, o := range ob {
		e, err := b.buildExpr(s, o.Expr)
		if err != nil {
			return nil, err
		}
		desc := strings.EqualFold(o.Direction, "desc")
		nullsFirst := !desc // BigQuery default: ASC->NULLS FIRST, DESC->NULLS LAST
		switch strings.ToLower(o.Nulls) {
		case "first":
			nullsFirst = true
		case "last":
			nullsFirst = false
		}
		out[i] = sql.SortField{Expr: e, Desc: desc, NullsFirst: nullsFirst}
	}
	return out, nil
}

func mustInt64(v types.Value) int64 { return v.AsInt64() }

func parseTypeName(name string) (types.DataType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	switch {
	case upper == "BOOL" || upper == "BOOLEAN":
		return types.Bool, nil
	case upper == "INT64" || upper == "INT" || upper == "INTEGER":
		return types.Int64, nil
	case upper == "FLOAT64" || upper == "FLOAT" || upper == "DOUBLE":
		return types.Float64Ty, nil
	case upper == "NUMERIC" || upper == "DECIMAL":
		return types.Numeric, nil
	case upper == "BIGNUMERIC" || upper == "BIGDECIMAL":
		return types.BigNumeric, nil
	case upper == "STRING" || upper == "VARCHAR" || upper == "TEXT":
		return types.String, nil
	case upper == "BYTES":
		return types.Bytes, nil
	case upper == "DATE":
		return types.Date, nil
	case upper == "TIME":
		return types.Time, nil
	case upper == "DATETIME":
		return types.DateTime, nil
	case upper == "TIMESTAMP":
		return types.Timestamp, nil
	case upper == "INTERVAL":
		return types.Interval, nil
	case upper == "JSON":
		return types.JSON, nil
	case upper == "GEOGRAPHY":
		return types.Geography, nil
	case strings.HasPrefix(upper, "ARRAY<") && strings.HasSuffix(upper, ">"):
		elem, err := parseTypeName(upper[len("ARRAY<") : len(upper)-1])
		if err != nil {
			return types.DataType{}, err
		}
		return types.ArrayOf(elem), nil
	default:
		return types.DataType{}, errUnsupported("type " + name)
	}
}
