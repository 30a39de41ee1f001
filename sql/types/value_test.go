package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnNullInvariant(t *testing.T) {
	c := NewColumn(Int64)
	require.NoError(t, c.Push(NewInt64(1)))
	require.NoError(t, c.Push(Null))
	require.NoError(t, c.Push(NewInt64(3)))

	require.Equal(t, 3, c.Len())
	require.Equal(t, 1, c.CountNull())
	require.Equal(t, 2, c.CountValid())
	require.True(t, c.Get(1).IsNull())
	require.Equal(t, int64(3), c.Get(2).AsInt64())
}

func TestComparePrefersNullsPolicy(t *testing.T) {
	require.Equal(t, -1, Compare(Null, NewInt64(1), NullsFirst))
	require.Equal(t, 1, Compare(Null, NewInt64(1), NullsLast))
}

func TestFloat64NaNTotalOrder(t *testing.T) {
	nan := NewFloat64(nan())
	one := NewFloat64(1)
	require.Equal(t, 1, Compare(nan, one, NullsFirst))
	require.Equal(t, 0, Compare(nan, nan, NullsFirst))
}

func TestBinaryArithmeticNullPropagation(t *testing.T) {
	a, err := FromValues(Int64, []Value{NewInt64(1), Null, NewInt64(3)})
	require.NoError(t, err)
	b, err := FromValues(Int64, []Value{NewInt64(10), NewInt64(20), Null})
	require.NoError(t, err)

	sum, err := BinaryArithmetic(OpAdd, a, b)
	require.NoError(t, err)
	require.Equal(t, int64(11), sum.Get(0).AsInt64())
	require.True(t, sum.Get(1).IsNull())
	require.True(t, sum.Get(2).IsNull())
}

func TestDivideByZeroYieldsNull(t *testing.T) {
	a, _ := FromValues(Int64, []Value{NewInt64(10)})
	b, _ := FromValues(Int64, []Value{NewInt64(0)})
	out, err := BinaryArithmetic(OpDiv, a, b)
	require.NoError(t, err)
	require.True(t, out.Get(0).IsNull())
}

func TestThreeValuedLogic(t *testing.T) {
	falseCol, _ := FromValues(Bool, []Value{NewBool(false)})
	nullCol, _ := FromValues(Bool, []Value{Null})
	trueCol, _ := FromValues(Bool, []Value{NewBool(true)})

	require.False(t, LogicalAnd(falseCol, nullCol).Get(0).AsBool())
	require.True(t, LogicalOr(trueCol, nullCol).Get(0).AsBool())
	require.True(t, LogicalAnd(trueCol, nullCol).Get(0).IsNull())
	require.True(t, LogicalNot(nullCol).Get(0).IsNull())
}

func TestCastAndSafeCastAgreeOnAcceptedInput(t *testing.T) {
	v := NewString("42")
	strict, err := CastValue(v, Int64, false)
	require.NoError(t, err)
	safe, err := CastValue(v, Int64, true)
	require.NoError(t, err)
	require.Equal(t, strict, safe)
}

func TestSafeCastConvertsFailureToNull(t *testing.T) {
	v := NewString("not a number")
	_, err := CastValue(v, Int64, false)
	require.Error(t, err)

	safe, err := CastValue(v, Int64, true)
	require.NoError(t, err)
	require.True(t, safe.IsNull())
}

func TestCastBoolToString(t *testing.T) {
	v, err := CastValue(NewBool(true), String, false)
	require.NoError(t, err)
	require.Equal(t, "true", v.AsString())
}
