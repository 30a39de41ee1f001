package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
)

// CastValue converts v to dt. When safe is true, a conversion failure yields
// NULL instead of an error (SAFE_CAST, §4.1); when safe is false the caller
// receives a CastFailure error.
func CastValue(v Value, dt DataType, safe bool) (Value, error) {
	if v.IsNull() {
		return Null, nil
	}
	if v.Kind() == dt.Kind {
		return v, nil
	}
	out, err := castTo(v, dt)
	if err != nil {
		if safe {
			return Null, nil
		}
		return Value{}, tideerrors.ErrCastFailure.New(v, dt.String())
	}
	return out, nil
}

// CastColumn applies CastValue element-wise.
func CastColumn(c *Column, dt DataType, safe bool) (*Column, error) {
	out := NewColumn(dt)
	for i := 0; i < c.Len(); i++ {
		v, err := CastValue(c.Get(i), dt, safe)
		if err != nil {
			return nil, err
		}
		if err := out.Push(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func castTo(v Value, dt DataType) (Value, error) {
	switch dt.Kind {
	case KindString:
		return NewString(formatAsString(v)), nil
	case KindInt64:
		return castToInt64(v)
	case KindFloat64:
		return castToFloat64(v)
	case KindNumeric:
		d, err := castToDecimal(v)
		if err != nil {
			return Value{}, err
		}
		return NewNumeric(d), nil
	case KindBigNumeric:
		d, err := castToDecimal(v)
		if err != nil {
			return Value{}, err
		}
		return NewBigNumeric(d), nil
	case KindBool:
		return castToBool(v)
	case KindBytes:
		if v.Kind() == KindString {
			return NewBytes([]byte(v.AsString())), nil
		}
	case KindDate:
		if v.Kind() == KindString {
			t, err := time.Parse("2006-01-02", v.AsString())
			if err != nil {
				return Value{}, err
			}
			return NewDate(t), nil
		}
		if v.Kind() == KindDateTime {
			return NewDate(v.AsDateTime()), nil
		}
		if v.Kind() == KindTimestamp {
			return NewDate(v.AsTimestamp()), nil
		}
	case KindTimestamp:
		if v.Kind() == KindString {
			t, err := parseTimestamp(v.AsString())
			if err != nil {
				return Value{}, err
			}
			return NewTimestamp(t), nil
		}
	case KindDateTime:
		if v.Kind() == KindString {
			t, err := time.Parse("2006-01-02T15:04:05", v.AsString())
			if err != nil {
				return Value{}, err
			}
			return NewDateTime(t), nil
		}
	}
	return Value{}, tideerrors.ErrCastFailure.New(v, dt.String())
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// formatAsString implements "decimal-first, then scientific format" for
// numerics and the bool->{"true","false"} rule (§4.1).
func formatAsString(v Value) string {
	switch v.Kind() {
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindInt64:
		return strconv.FormatInt(v.AsInt64(), 10)
	case KindFloat64:
		f := v.AsFloat64()
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if len(s) > 17 {
			s = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return s
	case KindNumeric, KindBigNumeric:
		return v.AsDecimal().String()
	default:
		return v.String()
	}
}

func castToInt64(v Value) (Value, error) {
	switch v.Kind() {
	case KindFloat64:
		return NewInt64(int64(v.AsFloat64())), nil
	case KindNumeric, KindBigNumeric:
		return NewInt64(v.AsDecimal().IntPart()), nil
	case KindBool:
		if v.AsBool() {
			return NewInt64(1), nil
		}
		return NewInt64(0), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return Value{}, err
		}
		return NewInt64(i), nil
	}
	return Value{}, tideerrors.ErrCastFailure.New(v, "INT64")
}

func castToFloat64(v Value) (Value, error) {
	switch v.Kind() {
	case KindInt64:
		return NewFloat64(float64(v.AsInt64())), nil
	case KindNumeric, KindBigNumeric:
		f, _ := v.AsDecimal().Float64()
		return NewFloat64(f), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return Value{}, err
		}
		return NewFloat64(f), nil
	}
	return Value{}, tideerrors.ErrCastFailure.New(v, "FLOAT64")
}

func castToDecimal(v Value) (decimal.Decimal, error) {
	switch v.Kind() {
	case KindInt64:
		return decimal.NewFromInt(v.AsInt64()), nil
	case KindFloat64:
		return decimal.NewFromFloat(v.AsFloat64()), nil
	case KindString:
		return decimal.NewFromString(strings.TrimSpace(v.AsString()))
	case KindNumeric, KindBigNumeric:
		return v.AsDecimal(), nil
	}
	return decimal.Decimal{}, tideerrors.ErrCastFailure.New(v, "NUMERIC")
}

func castToBool(v Value) (Value, error) {
	switch v.Kind() {
	case KindString:
		switch strings.ToLower(v.AsString()) {
		case "true":
			return NewBool(true), nil
		case "false":
			return NewBool(false), nil
		}
	case KindInt64:
		return NewBool(v.AsInt64() != 0), nil
	}
	return Value{}, tideerrors.ErrCastFailure.New(v, "BOOL")
}
