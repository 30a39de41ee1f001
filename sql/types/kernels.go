package types

import (
	"github.com/shopspring/decimal"
)

// BinOp names a vectorized binary kernel.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	OpSafeAdd
	OpSafeSub
	OpSafeMul
	OpSafeDivide
	OpIEEEDivide
)

// Coerce widens a and b onto a common type per §4.1 ("equal types pass
// through; Int64 with Float64 widens the integer side to Float64; Int64 with
// Numeric widens the integer side to Numeric; Numeric with Numeric proceeds
// without widening"). ok is false when the pair has no defined coercion and
// the caller must decide between an error and NULL.
func Coerce(a, b *Column) (*Column, *Column, bool) {
	if a.dt.Equal(b.dt) {
		return a, b, true
	}
	dt, ok := WidenNumeric(a.dt, b.dt)
	if !ok {
		return a, b, false
	}
	ac, bc := a, b
	if !a.dt.Equal(dt) {
		ac, _ = CastColumn(a, dt, false)
	}
	if !b.dt.Equal(dt) {
		bc, _ = CastColumn(b, dt, false)
	}
	return ac, bc, true
}

// BinaryArithmetic applies an element-wise arithmetic kernel with NULL
// propagation: a NULL operand at position i makes the result NULL at i.
// Division and modulo by zero produce NULL rather than erroring, per §4.1.
func BinaryArithmetic(op BinOp, a, b *Column) (*Column, error) {
	ac, bc, ok := Coerce(a, b)
	if !ok {
		return nil, errKindMismatch(a.dt.Kind, b.dt.Kind)
	}
	n := ac.Len()
	out := NewColumn(resultArithType(op, ac.dt))
	for i := 0; i < n; i++ {
		if ac.IsNull(i) || bc.IsNull(i) {
			_ = out.Push(Null)
			continue
		}
		v, err := arith(op, ac.Get(i), bc.Get(i))
		if err != nil {
			if isSafeOp(op) {
				_ = out.Push(Null)
				continue
			}
			return nil, err
		}
		_ = out.Push(v)
	}
	return out, nil
}

func isSafeOp(op BinOp) bool {
	switch op {
	case OpSafeAdd, OpSafeSub, OpSafeMul, OpSafeDivide:
		return true
	}
	return false
}

func resultArithType(op BinOp, numericType DataType) DataType {
	if op == OpIEEEDivide {
		return Float64Ty
	}
	return numericType
}

func arith(op BinOp, a, b Value) (Value, error) {
	switch a.Kind() {
	case KindInt64:
		return arithInt(op, a.AsInt64(), b.AsInt64())
	case KindFloat64:
		return arithFloat(op, a.AsFloat64(), b.AsFloat64())
	case KindNumeric, KindBigNumeric:
		return arithDecimal(op, a.Kind(), a.AsDecimal(), b.AsDecimal())
	default:
		return Value{}, ErrUnsupportedArith
	}
}

func arithInt(op BinOp, a, b int64) (Value, error) {
	switch op {
	case OpAdd, OpSafeAdd:
		return NewInt64(a + b), nil
	case OpSub, OpSafeSub:
		return NewInt64(a - b), nil
	case OpMul, OpSafeMul:
		return NewInt64(a * b), nil
	case OpDiv, OpSafeDivide:
		if b == 0 {
			return Null, nil
		}
		return NewInt64(a / b), nil
	case OpIEEEDivide:
		return NewFloat64(float64(a) / float64(b)), nil
	case OpMod:
		if b == 0 {
			return Null, nil
		}
		return NewInt64(a % b), nil
	}
	return Value{}, ErrUnsupportedArith
}

func arithFloat(op BinOp, a, b float64) (Value, error) {
	switch op {
	case OpAdd, OpSafeAdd:
		return NewFloat64(a + b), nil
	case OpSub, OpSafeSub:
		return NewFloat64(a - b), nil
	case OpMul, OpSafeMul:
		return NewFloat64(a * b), nil
	case OpDiv, OpSafeDivide:
		if b == 0 {
			return Null, nil
		}
		return NewFloat64(a / b), nil
	case OpIEEEDivide:
		return NewFloat64(a / b), nil
	case OpMod:
		if b == 0 {
			return Null, nil
		}
		return NewFloat64(float64(int64(a) % int64(b))), nil
	}
	return Value{}, ErrUnsupportedArith
}

func arithDecimal(op BinOp, kind Kind, a, b decimal.Decimal) (Value, error) {
	wrap := NewNumeric
	if kind == KindBigNumeric {
		wrap = NewBigNumeric
	}
	switch op {
	case OpAdd, OpSafeAdd:
		return wrap(a.Add(b)), nil
	case OpSub, OpSafeSub:
		return wrap(a.Sub(b)), nil
	case OpMul, OpSafeMul:
		return wrap(a.Mul(b)), nil
	case OpDiv, OpSafeDivide:
		if b.IsZero() {
			return Null, nil
		}
		return wrap(a.DivRound(b, int32(38))), nil
	case OpIEEEDivide:
		if b.IsZero() {
			f, _ := a.Float64()
			if f > 0 {
				return NewFloat64(posInf()), nil
			} else if f < 0 {
				return NewFloat64(negInf()), nil
			}
			return NewFloat64(nan()), nil
		}
		fa, _ := a.Float64()
		fb, _ := b.Float64()
		return NewFloat64(fa / fb), nil
	case OpMod:
		if b.IsZero() {
			return Null, nil
		}
		return wrap(a.Mod(b)), nil
	}
	return Value{}, ErrUnsupportedArith
}

// Comparison applies an element-wise comparison kernel. NULL propagates: a
// NULL operand makes the result NULL (SQL three-valued logic), not false.
func Comparison(op BinOp, a, b *Column) (*Column, error) {
	ac, bc := a, b
	if a.dt.IsNumeric() || b.dt.IsNumeric() {
		var ok bool
		ac, bc, ok = Coerce(a, b)
		if !ok {
			return nil, errKindMismatch(a.dt.Kind, b.dt.Kind)
		}
	}
	n := ac.Len()
	out := NewColumn(Bool)
	for i := 0; i < n; i++ {
		if ac.IsNull(i) || bc.IsNull(i) {
			_ = out.Push(Null)
			continue
		}
		c := Compare(ac.Get(i), bc.Get(i), NullsFirst)
		var result bool
		switch op {
		case OpEq:
			result = c == 0
		case OpNeq:
			result = c != 0
		case OpLt:
			result = c < 0
		case OpLte:
			result = c <= 0
		case OpGt:
			result = c > 0
		case OpGte:
			result = c >= 0
		}
		_ = out.Push(NewBool(result))
	}
	return out, nil
}

// LogicalAnd/LogicalOr implement BigQuery's three-valued logic: FALSE AND
// NULL = FALSE, TRUE OR NULL = TRUE, otherwise NULL propagates (§4.1).
func LogicalAnd(a, b *Column) *Column {
	n := a.Len()
	out := NewColumn(Bool)
	for i := 0; i < n; i++ {
		av, bv := a.Get(i), b.Get(i)
		switch {
		case (!av.IsNull() && !av.AsBool()) || (!bv.IsNull() && !bv.AsBool()):
			_ = out.Push(NewBool(false))
		case av.IsNull() || bv.IsNull():
			_ = out.Push(Null)
		default:
			_ = out.Push(NewBool(av.AsBool() && bv.AsBool()))
		}
	}
	return out
}

func LogicalOr(a, b *Column) *Column {
	n := a.Len()
	out := NewColumn(Bool)
	for i := 0; i < n; i++ {
		av, bv := a.Get(i), b.Get(i)
		switch {
		case (!av.IsNull() && av.AsBool()) || (!bv.IsNull() && bv.AsBool()):
			_ = out.Push(NewBool(true))
		case av.IsNull() || bv.IsNull():
			_ = out.Push(Null)
		default:
			_ = out.Push(NewBool(av.AsBool() || bv.AsBool()))
		}
	}
	return out
}

// LogicalNot implements "NOT NULL = NULL".
func LogicalNot(a *Column) *Column {
	out := NewColumn(Bool)
	for i := 0; i < a.Len(); i++ {
		v := a.Get(i)
		if v.IsNull() {
			_ = out.Push(Null)
			continue
		}
		_ = out.Push(NewBool(!v.AsBool()))
	}
	return out
}

func posInf() float64 { return 1.0 / zeroFloat() }
func negInf() float64 { return -1.0 / zeroFloat() }
func nan() float64     { z := zeroFloat(); return z / z }
func zeroFloat() float64 { return 0.0 }
